package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	uiview "wfx/ui"
)

var (
	dashboardHeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	dashboardNormalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("251"))
	dashboardSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	dashboardDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dashboardSecondary     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dashboardErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dashboardBannerStyle   = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)
)

type prsLoadedMsg struct {
	prs []PullRequest
}

type dashboardModel struct {
	mgr     *GHManager
	ctx     RepoContext
	repo    string
	spinner spinner.Model
	loading bool
	prs     []PullRequest
	cursor  int
	warnMsg string
}

func newDashboardModel(ctx RepoContext, mgr *GHManager, repo string) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return dashboardModel{
		mgr:     mgr,
		ctx:     ctx,
		repo:    repo,
		spinner: sp,
		loading: true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadPRs())
}

func (m dashboardModel) loadPRs() tea.Cmd {
	mgr, ctx, repo := m.mgr, m.ctx, m.repo
	return func() tea.Msg {
		return prsLoadedMsg{prs: mgr.AllPRsStatus(ctx, repo)}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case prsLoadedMsg:
		m.prs = msg.prs
		m.loading = false
		if m.cursor >= len(m.prs) {
			m.cursor = max(len(m.prs)-1, 0)
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.prs)-1 {
				m.cursor++
			}
		case "r":
			if !m.loading {
				m.loading = true
				m.warnMsg = ""
				return m, tea.Batch(m.spinner.Tick, m.loadPRs())
			}
		case "enter", "o":
			if m.cursor < len(m.prs) {
				url := strings.TrimSpace(m.prs[m.cursor].URL)
				if url == "" {
					m.warnMsg = "no URL for selected PR"
				} else if err := openURL(url); err != nil {
					m.warnMsg = err.Error()
				}
			}
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(dashboardBannerStyle.Render("wfx · pull requests"))
	b.WriteString("\n\n")
	b.WriteString(uiview.RenderPRSelector(m.dashboardRows(), m.cursor, m.loading, m.spinner.View(), dashboardStyles()))
	b.WriteString("\n")
	if m.warnMsg != "" {
		b.WriteString(dashboardErrorStyle.Render(m.warnMsg))
		b.WriteString("\n")
	}
	b.WriteString(dashboardSecondary.Render("enter: open · r: refresh · q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m dashboardModel) dashboardRows() []uiview.PRRow {
	rows := make([]uiview.PRRow, 0, len(m.prs))
	for _, pr := range m.prs {
		failing := failingCheckNames(pr)
		row := uiview.BuildPRRow(pr.Number, pr.Repo, pr.Branch, pr.Title, string(pr.CIStatus), failing, pr.State)
		if strings.TrimSpace(pr.URL) != "" {
			row.NumberLabel = termenv.Hyperlink(pr.URL, row.NumberLabel)
		}
		rows = append(rows, row)
	}
	return rows
}

func failingCheckNames(pr PullRequest) string {
	names := make([]string, 0, 2)
	for _, c := range FailedChecks(pr) {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func dashboardStyles() uiview.Styles {
	return uiview.Styles{
		Header:           func(s string) string { return dashboardHeaderStyle.Render(s) },
		Normal:           func(s string) string { return dashboardNormalStyle.Render(s) },
		Selected:         func(s string) string { return dashboardSelectedStyle.Render(s) },
		Disabled:         func(s string) string { return dashboardDisabledStyle.Render(s) },
		DisabledSelected: func(s string) string { return dashboardSelectedStyle.Render(s) },
		Secondary:        func(s string) string { return dashboardSecondary.Render(s) },
	}
}

func max(a int, b int) int {
	if a > b {
		return a
	}
	return b
}

func runPRDashboard(ctx RepoContext, repo string) error {
	p := tea.NewProgram(newDashboardModel(ctx, NewGHManager(ctx.runner), repo))
	_, err := p.Run()
	return err
}
