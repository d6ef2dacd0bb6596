package pagination

import "context"

// Page is one rendered page of a paginated message.
type Page struct {
	Index int
	// Total is the number of pages, or zero when the source cannot know it.
	Total int
	Lines []string
}

// Source yields pages by index. ok is false when the index has no page.
type Source interface {
	Page(ctx context.Context, index int) (page Page, ok bool, err error)
}

type staticSource struct {
	pages [][]string
}

// Static serves pre-rendered pages. Empty pages are dropped.
func Static(pages ...[]string) Source {
	kept := make([][]string, 0, len(pages))
	for _, page := range pages {
		if len(page) > 0 {
			kept = append(kept, page)
		}
	}
	return staticSource{pages: kept}
}

// Chunk splits lines into pages of at most size lines.
func Chunk(lines []string, size int) Source {
	return Static(Split(lines, size)...)
}

// Split cuts lines into consecutive groups of size. A non-positive size
// yields a single group.
func Split(lines []string, size int) [][]string {
	if len(lines) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(lines)
	}

	groups := make([][]string, 0, (len(lines)+size-1)/size)
	for start := 0; start < len(lines); start += size {
		end := min(start+size, len(lines))
		groups = append(groups, lines[start:end:end])
	}
	return groups
}

func (s staticSource) Page(_ context.Context, index int) (Page, bool, error) {
	if index < 0 || index >= len(s.pages) {
		return Page{}, false, nil
	}
	return Page{Index: index, Total: len(s.pages), Lines: s.pages[index]}, true, nil
}

// FetchFunc loads the lines of one page on demand.
type FetchFunc func(ctx context.Context, index int) ([]string, error)

type fetchedSource struct {
	fetch FetchFunc
}

// Fetched queries fetch on every move. An empty result means there is no
// such page.
func Fetched(fetch FetchFunc) Source {
	return fetchedSource{fetch: fetch}
}

func (s fetchedSource) Page(ctx context.Context, index int) (Page, bool, error) {
	if index < 0 {
		return Page{}, false, nil
	}

	lines, err := s.fetch(ctx, index)
	if err != nil {
		return Page{}, false, err
	}
	if len(lines) == 0 {
		return Page{}, false, nil
	}
	return Page{Index: index, Lines: lines}, true, nil
}
