package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/anicord/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// reportState is what the report can say about the guild.
type reportState int

const (
	// stateNoMembers: nobody in the guild is linked.
	stateNoMembers reportState = iota
	// stateUnscored: members are listed but none contributed a score.
	stateUnscored
	stateScored
)

func stateOf(report domain.AggregateReport) reportState {
	switch {
	case report.TotalLines() == 0:
		return stateNoMembers
	case !report.HasAverage():
		return stateUnscored
	default:
		return stateScored
	}
}

type renderReadyMsg struct{}

type model struct {
	report domain.AggregateReport
	opts   RenderOptions
	styles styles
	state  reportState
	ready  bool
}

func newModel(report domain.AggregateReport, opts RenderOptions) model {
	return model{
		report: report,
		opts:   opts,
		styles: newStyles(),
		state:  stateOf(report),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(renderReadyMsg); ok {
		m.ready = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if !m.ready {
		return ""
	}

	sections := []string{m.header()}

	switch m.state {
	case stateNoMembers:
		sections = append(sections, m.styles.empty.Render("No linked members."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	case stateUnscored:
		sections = append(sections, m.styles.empty.Render(fmt.Sprintf(
			"No member has scored this %s yet.", strings.ToLower(string(m.report.Media.Type)),
		)))
	case stateScored:
		sections = append(sections, m.styles.section.Render(scoreLine("SERVER SCORE", m.report.AverageInt(), m.styles)))
	}

	if m.opts.CatalogScore > 0 {
		sections = append(sections, scoreLine("AniList SCORE", m.opts.CatalogScore, m.styles))
	}
	for _, bucket := range m.report.Buckets {
		sections = append(sections, m.styles.section.Render(renderBucket(bucket, m.styles)))
	}
	if m.opts.DropThreshold > 0 {
		sections = append(sections, m.styles.footer.Render(dropFooter(m.report.Media.Type, m.opts.DropThreshold)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) header() string {
	members := fmt.Sprintf("members: %d", m.opts.Members)
	if m.state == stateScored {
		members += fmt.Sprintf(" (%d scored)", m.report.Contributors)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.title.Render(reportTitle(m.opts.Title, m.report.Media)),
		m.styles.header.Render(members),
	)
}

// Render lays out an aggregate report for a terminal.
func Render(report domain.AggregateReport, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(report, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
