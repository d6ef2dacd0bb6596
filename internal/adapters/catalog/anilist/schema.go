package anilist

import (
	"github.com/bnema/anicord/internal/domain"
)

type titleSchema struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

func (t titleSchema) toDomain() domain.MediaTitle {
	return domain.MediaTitle{Romaji: t.Romaji, English: t.English, Native: t.Native}
}

type mediaSchema struct {
	ID          int         `json:"id"`
	Type        string      `json:"type"`
	SiteURL     string      `json:"siteUrl"`
	Description string      `json:"description"`
	Title       titleSchema `json:"title"`
	CoverImage  struct {
		ExtraLarge string `json:"extraLarge"`
	} `json:"coverImage"`
	BannerImage string   `json:"bannerImage"`
	Format      string   `json:"format"`
	Status      string   `json:"status"`
	Season      string   `json:"season"`
	SeasonYear  int      `json:"seasonYear"`
	MeanScore   int      `json:"meanScore"`
	Popularity  int      `json:"popularity"`
	Favourites  int      `json:"favourites"`
	Episodes    int      `json:"episodes"`
	Duration    int      `json:"duration"`
	Chapters    int      `json:"chapters"`
	Volumes     int      `json:"volumes"`
	Genres      []string `json:"genres"`
}

func (m mediaSchema) toDomain() domain.Media {
	return domain.Media{
		ID:          m.ID,
		Type:        domain.MediaType(m.Type),
		Title:       m.Title.toDomain(),
		Description: m.Description,
		SiteURL:     m.SiteURL,
		CoverImage:  m.CoverImage.ExtraLarge,
		BannerImage: m.BannerImage,
		Format:      m.Format,
		Status:      m.Status,
		Season:      domain.Season(m.Season),
		SeasonYear:  m.SeasonYear,
		MeanScore:   m.MeanScore,
		Popularity:  m.Popularity,
		Favourites:  m.Favourites,
		Episodes:    m.Episodes,
		Duration:    m.Duration,
		Chapters:    m.Chapters,
		Volumes:     m.Volumes,
		Genres:      m.Genres,
	}
}

type statisticsSchema struct {
	Count           int     `json:"count"`
	MeanScore       float64 `json:"meanScore"`
	MinutesWatched  int     `json:"minutesWatched"`
	EpisodesWatched int     `json:"episodesWatched"`
	ChaptersRead    int     `json:"chaptersRead"`
	VolumesRead     int     `json:"volumesRead"`
	Formats         []struct {
		Format string `json:"format"`
	} `json:"formats"`
	Genres []struct {
		Genre string `json:"genre"`
	} `json:"genres"`
}

func (s statisticsSchema) toDomain() domain.MediaStatistics {
	stats := domain.MediaStatistics{
		Count:           s.Count,
		MeanScore:       s.MeanScore,
		MinutesWatched:  s.MinutesWatched,
		EpisodesWatched: s.EpisodesWatched,
		ChaptersRead:    s.ChaptersRead,
		VolumesRead:     s.VolumesRead,
	}
	for _, format := range s.Formats {
		stats.Formats = append(stats.Formats, format.Format)
	}
	for _, genre := range s.Genres {
		stats.Genres = append(stats.Genres, genre.Genre)
	}
	return stats
}

type namedNode struct {
	ID      int          `json:"id"`
	SiteURL string       `json:"siteUrl"`
	Title   *titleSchema `json:"title"`
	Name    any          `json:"name"`
}

// name handles the three shapes favourites use: media titles, person names
// ({full, native}) and plain studio names.
func (n namedNode) name() string {
	if n.Title != nil {
		return n.Title.toDomain().Preferred()
	}
	switch name := n.Name.(type) {
	case string:
		return name
	case map[string]any:
		if full, _ := name["full"].(string); full != "" {
			return full
		}
		native, _ := name["native"].(string)
		return native
	default:
		return ""
	}
}

type favouriteConnection struct {
	Nodes []namedNode `json:"nodes"`
}

func (c favouriteConnection) toDomain() []domain.FavouriteRef {
	refs := make([]domain.FavouriteRef, 0, len(c.Nodes))
	for _, node := range c.Nodes {
		refs = append(refs, domain.FavouriteRef{ID: node.ID, Name: node.name(), SiteURL: node.SiteURL})
	}
	return refs
}

type userSchema struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	SiteURL     string `json:"siteUrl"`
	About       string `json:"about"`
	BannerImage string `json:"bannerImage"`
	Avatar      struct {
		Large string `json:"large"`
	} `json:"avatar"`
	Options struct {
		ProfileColor string `json:"profileColor"`
	} `json:"options"`
	Statistics struct {
		Anime statisticsSchema `json:"anime"`
		Manga statisticsSchema `json:"manga"`
	} `json:"statistics"`
	Favourites struct {
		Anime      favouriteConnection `json:"anime"`
		Manga      favouriteConnection `json:"manga"`
		Characters favouriteConnection `json:"characters"`
		Staff      favouriteConnection `json:"staff"`
		Studios    favouriteConnection `json:"studios"`
	} `json:"favourites"`
}

func (u userSchema) toDomain() domain.User {
	return domain.User{
		ID:           u.ID,
		Name:         u.Name,
		SiteURL:      u.SiteURL,
		Avatar:       u.Avatar.Large,
		BannerImage:  u.BannerImage,
		About:        u.About,
		ProfileColor: u.Options.ProfileColor,
		Statistics: domain.UserStatistics{
			Anime: u.Statistics.Anime.toDomain(),
			Manga: u.Statistics.Manga.toDomain(),
		},
		Favourites: domain.Favourites{
			Anime:      u.Favourites.Anime.toDomain(),
			Manga:      u.Favourites.Manga.toDomain(),
			Characters: u.Favourites.Characters.toDomain(),
			Staff:      u.Favourites.Staff.toDomain(),
			Studios:    u.Favourites.Studios.toDomain(),
		},
	}
}

type characterSchema struct {
	ID          int    `json:"id"`
	SiteURL     string `json:"siteUrl"`
	Description string `json:"description"`
	Favourites  int    `json:"favourites"`
	Image       struct {
		Large string `json:"large"`
	} `json:"image"`
	Name struct {
		Full        string   `json:"full"`
		Native      string   `json:"native"`
		Alternative []string `json:"alternative"`
	} `json:"name"`
	Media struct {
		Edges []struct {
			CharacterRole string `json:"characterRole"`
			Node          struct {
				SiteURL string      `json:"siteUrl"`
				Title   titleSchema `json:"title"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"media"`
}

func (c characterSchema) toDomain() domain.Character {
	character := domain.Character{
		ID: c.ID,
		Name: domain.CharacterName{
			Full:        c.Name.Full,
			Native:      c.Name.Native,
			Alternative: c.Name.Alternative,
		},
		Description: c.Description,
		SiteURL:     c.SiteURL,
		Image:       c.Image.Large,
		Favourites:  c.Favourites,
	}
	for _, edge := range c.Media.Edges {
		character.Appearances = append(character.Appearances, domain.CharacterAppearance{
			Title:   edge.Node.Title.toDomain(),
			SiteURL: edge.Node.SiteURL,
			Role:    edge.CharacterRole,
		})
	}
	return character
}

type listEntrySchema struct {
	Status   string `json:"status"`
	Score    int    `json:"score"`
	Progress int    `json:"progress"`
	Notes    string `json:"notes"`
}

func (e listEntrySchema) toDomain() domain.ListEntry {
	status, _ := domain.ParseListStatus(e.Status)
	return domain.ListEntry{Status: status, Score: e.Score, Progress: e.Progress, Notes: e.Notes}
}

type userData struct {
	User *userSchema `json:"User"`
}

type mediaData struct {
	Media *mediaSchema `json:"Media"`
}

type characterData struct {
	Character *characterSchema `json:"Character"`
}

type listEntryData struct {
	MediaList *listEntrySchema `json:"MediaList"`
}

type pageData struct {
	Page struct {
		Media      []mediaSchema     `json:"media"`
		Characters []characterSchema `json:"characters"`
		Users      []userSchema      `json:"users"`
		MediaList  []struct {
			Score int         `json:"score"`
			Media mediaSchema `json:"media"`
		} `json:"mediaList"`
	} `json:"Page"`
}
