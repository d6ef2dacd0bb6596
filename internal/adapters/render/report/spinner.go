package report

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tracker receives the milestones of a scores fetch. Implementations must be
// safe for concurrent use.
type Tracker interface {
	MediaFound(title string)
	MemberFetched(done, total int)
}

// NopTracker ignores every milestone.
type NopTracker struct{}

func (NopTracker) MediaFound(string) {}
func (NopTracker) MemberFetched(int, int) {}

type mediaFoundMsg struct {
	title string
}

type memberFetchedMsg struct {
	done  int
	total int
}

type fetchDoneMsg struct {
	err error
}

// programTracker forwards milestones into a running bubbletea program.
type programTracker struct {
	program *tea.Program
}

func (t *programTracker) MediaFound(title string) {
	t.program.Send(mediaFoundMsg{title: title})
}

func (t *programTracker) MemberFetched(done, total int) {
	t.program.Send(memberFetchedMsg{done: done, total: total})
}

// fetchModel shows what a scores fetch is waiting on: the media lookup first,
// then the member count.
type fetchModel struct {
	spinner spinner.Model
	counter lipgloss.Style
	query   string
	title   string
	members int
	fetched int
	fetch   tea.Cmd
	err     error
	done    bool
}

func newFetchModel(query string, members int, fetch tea.Cmd) fetchModel {
	return fetchModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		counter: lipgloss.NewStyle().Bold(true),
		query:   query,
		members: members,
		fetch:   fetch,
	}
}

func (m fetchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case mediaFoundMsg:
		m.title = msg.title
		return m, nil
	case memberFetchedMsg:
		// Concurrent fetches can report out of order.
		m.fetched = max(m.fetched, msg.done)
		m.members = msg.total
		return m, nil
	case fetchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m fetchModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label())
}

func (m fetchModel) label() string {
	switch {
	case m.title == "":
		return fmt.Sprintf("Looking up %q...", m.query)
	case m.members == 0:
		return fmt.Sprintf("Fetching scores for %s: no linked members", m.title)
	default:
		progress := m.counter.Render(fmt.Sprintf("%d/%d", m.fetched, m.members))
		return fmt.Sprintf("Fetching scores for %s: %s members", m.title, progress)
	}
}

// RunScoresFetch runs fetch behind a progress line on output and returns its
// error. fetch reports milestones through the tracker it is given.
func RunScoresFetch(ctx context.Context, output io.Writer, query string, members int, fetch func(context.Context, Tracker) error) error {
	tracker := &programTracker{}
	fetchCmd := func() tea.Msg {
		return fetchDoneMsg{err: fetch(ctx, tracker)}
	}

	p := tea.NewProgram(
		newFetchModel(query, members, fetchCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	tracker.program = p

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(fetchModel)
	if !ok {
		return fmt.Errorf("unexpected final fetch model type %T", finalModel)
	}
	return result.err
}
