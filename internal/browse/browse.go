// Package browse is a terminal browser for one aggregation result:
// a posting list with a scrollable detail view.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abhimit04/job-new-agent/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(1, 0, 0, 2)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 0, 0, 2)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 0, 0, 2)

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24")).
				Padding(0, 0, 0, 2)

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24")).
				Padding(0, 0, 0, 2)

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 0, 0, 2)
)

const itemHeight = 2

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

type browseModel struct {
	title    string
	postings []model.Posting
	summary  string

	cursor       int
	width        int
	height       int
	listViewport viewport.Model
	ready        bool

	view           viewState
	detailViewport viewport.Model
}

// Run opens the browser over the given result. Blocks until the user quits.
func Run(req model.SearchRequest, out model.AggregationResult, summary string) error {
	m := browseModel{
		title:    fmt.Sprintf("%s in %s — %d postings", req.JobType, req.Location, len(out.Postings)),
		postings: out.Postings,
		summary:  summary,
	}

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listViewport = viewport.New(m.width, max(m.height-4, 1))
		m.listViewport.SetContent(m.renderList())
		if m.view == viewDetail {
			m.detailViewport = viewport.New(m.width-4, max(m.height-4, 1))
			m.detailViewport.SetContent(m.renderDetail())
		}
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.listViewport.SetContent(m.renderList())
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		if m.cursor < len(m.postings)-1 {
			m.cursor++
		}
		m.listViewport.SetContent(m.renderList())
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		if len(m.postings) == 0 {
			return m, nil
		}
		m.view = viewDetail
		m.detailViewport = viewport.New(m.width-4, max(m.height-4, 1))
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.postings[m.cursor].Link)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) ensureCursorVisible() {
	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1
	if top < m.listViewport.YOffset {
		m.listViewport.SetYOffset(top)
	} else if bottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(bottom - m.listViewport.Height + 1)
	}
}

func (m browseModel) View() string {
	if !m.ready {
		return "loading..."
	}

	if m.view == viewDetail {
		return headerStyle.Render(m.title) + "\n" +
			m.detailViewport.View() + "\n" +
			statusBarStyle.Width(m.width).Render("esc back · o open link · q quit")
	}

	return headerStyle.Render(m.title) + "\n" +
		m.listViewport.View() + "\n" +
		statusBarStyle.Width(m.width).Render("enter details · j/k move · q quit")
}

func (m browseModel) renderList() string {
	if len(m.postings) == 0 {
		return hintStyle.Render("no postings")
	}

	var b strings.Builder
	for i, p := range m.postings {
		title := itemTitleStyle
		subtitle := itemSubtitleStyle
		if i == m.cursor {
			title = selectedTitleStyle
			subtitle = selectedSubtitleStyle
		}
		b.WriteString(title.Render(p.Title) + "\n")
		b.WriteString(subtitle.Render(p.Company+" · "+p.Location) + "\n")
	}
	return b.String()
}

func (m browseModel) renderDetail() string {
	p := m.postings[m.cursor]

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label) + value + "\n")
	}

	b.WriteString(itemTitleStyle.Render(p.Title) + "\n\n")
	row("Company", p.Company)
	row("Location", p.Location)
	row("Posted", p.PostedAt)
	row("Salary", p.Salary)
	row("Source", p.Source)
	row("Link", p.Link)

	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}

	if m.summary != "" && m.summary != model.SummaryUnavailable {
		b.WriteString("\n" + detailLabelStyle.Render("Analysis") + "\n" + m.summary + "\n")
	}

	return b.String()
}

// openURL opens url in the default browser; failures are ignored since
// the link is also visible in the detail view.
func openURL(url string) {
	switch runtime.GOOS {
	case "darwin":
		_ = exec.Command("open", url).Start()
	case "windows":
		_ = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		_ = exec.Command("xdg-open", url).Start()
	}
}
