package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"xref-tui/internal/api"
	"xref-tui/internal/graph"
	"xref-tui/internal/session"
	"xref-tui/internal/settings"
	"xref-tui/internal/table"
	"xref-tui/internal/theme"
	"xref-tui/internal/tree"
	"xref-tui/internal/verse"
)

type pane int

const (
	paneGraph pane = iota
	paneTree
	paneTable
	paneCount
)

type Options struct {
	Settings settings.Settings
	// SettingsPath is where preferences are saved on quit. Empty disables
	// saving.
	SettingsPath string
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

type statusMsg struct {
	text string
	err  bool
}

// Model lays out the three panes around one session. The panes subscribe to
// the session in the order graph, tree, table, which is the order every focus
// change reaches them.
type Model struct {
	sess  *session.Session
	graph *graph.Viewer
	tree  *tree.Selector
	table *table.Table

	theme        theme.Theme
	styles       theme.Styles
	settingsPath string
	clipboard    func(string) error

	focus     pane
	prompt    textinput.Model
	prompting bool
	help      help.Model
	status    statusMsg

	width  int
	height int
	ready  bool
}

func New(sess *session.Session, opts Options) Model {
	th := theme.GetTheme(opts.Settings.Theme)
	styles := th.Styles()

	mode, err := api.ParseFilterMode(opts.Settings.FilterMode)
	if err != nil {
		mode = api.FilterAll
	}

	ti := textinput.New()
	ti.Placeholder = "Enter verse (e.g., Hel. 5:12)"
	ti.Prompt = "go to: "
	ti.CharLimit = 50
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}

	m := Model{
		sess: sess,
		graph: graph.NewViewer(sess, styles, graph.Options{
			FilterMode:       mode,
			IncludeSuggested: opts.Settings.IncludeSuggested,
		}),
		tree:         tree.NewSelector(sess, styles),
		table:        table.NewTable(sess, styles),
		theme:        th,
		styles:       styles,
		settingsPath: opts.SettingsPath,
		clipboard:    clip,
		prompt:       ti,
		help:         help.New(),
	}
	m.applyFocus()
	return m
}

// Init loads the tree, draws the verse named by the page URL and records it
// in history.
func (m Model) Init() tea.Cmd {
	v := m.sess.Location.CurrentVerse()
	m.sess.Logger.Info("starting", zap.String("verse", string(v)), zap.String("url", m.sess.Location.URL()))
	return tea.Batch(
		m.graph.Init(v),
		m.tree.Init(v),
		m.table.Refresh(v),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.layout()
		return m, nil

	case statusMsg:
		m.status = msg
		return m, nil

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}

	// Fetch results go to every pane; each ignores what it did not ask for.
	return m, tea.Batch(
		m.graph.Update(msg),
		m.tree.Update(msg),
		m.table.Update(msg),
	)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = statusMsg{}

	switch {
	case key.Matches(msg, keys.Quit):
		m.savePreferences()
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, keys.Tab):
		m.focus = (m.focus + 1) % paneCount
		m.applyFocus()
		return m, nil
	case key.Matches(msg, keys.Back):
		return m, m.sess.Back()
	case key.Matches(msg, keys.Forward):
		return m, m.sess.Forward()
	case key.Matches(msg, keys.Filter):
		return m, m.graph.CycleFilterMode()
	case key.Matches(msg, keys.Suggested):
		return m, m.graph.ToggleSuggested()
	case key.Matches(msg, keys.GoTo):
		m.prompting = true
		m.prompt.Reset()
		return m, m.prompt.Focus()
	case key.Matches(msg, keys.Copy):
		return m, m.copyURL()
	case key.Matches(msg, keys.Theme):
		m.setTheme(theme.Next(m.theme))
		return m, nil
	}

	switch m.focus {
	case paneTree:
		return m, m.tree.Update(msg)
	case paneTable:
		return m, m.table.Update(msg)
	default:
		return m, m.graph.Update(msg)
	}
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.savePreferences()
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case tea.KeyEnter:
		v := verse.ID(strings.TrimSpace(m.prompt.Value()))
		m.prompting = false
		m.prompt.Blur()
		m.prompt.Reset()
		if v == "" {
			return m, nil
		}
		return m, m.sess.Transition(v)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) copyURL() tea.Cmd {
	url := m.sess.Location.URL()
	write := m.clipboard
	logger := m.sess.Logger
	return func() tea.Msg {
		if err := write(url); err != nil {
			logger.Warn("copying link failed", zap.Error(err))
			return statusMsg{text: "Copy failed: " + err.Error(), err: true}
		}
		return statusMsg{text: "Copied " + url}
	}
}

func (m *Model) setTheme(th theme.Theme) {
	m.theme = th
	m.styles = th.Styles()
	m.graph.SetStyles(m.styles)
	m.tree.SetStyles(m.styles)
	m.table.SetStyles(m.styles)
	m.status = statusMsg{text: "Theme: " + th.Name}
}

func (m *Model) applyFocus() {
	m.graph.SetFocused(m.focus == paneGraph)
	m.tree.SetFocused(m.focus == paneTree)
	m.table.SetFocused(m.focus == paneTable)
}

// savePreferences writes the display options back to the config file. The
// focus verse is not among them.
func (m Model) savePreferences() {
	if m.settingsPath == "" {
		return
	}
	opts := m.graph.Options()
	err := settings.SavePreferences(m.settingsPath, settings.Preferences{
		Theme:            m.theme.Key,
		FilterMode:       string(opts.FilterMode),
		IncludeSuggested: opts.IncludeSuggested,
	})
	if err != nil {
		m.sess.Logger.Error("saving preferences failed", zap.Error(err))
	}
}

func (m *Model) layout() {
	if !m.ready {
		return
	}
	frameW, frameH := m.styles.Pane.GetFrameSize()

	// Header, status line and help.
	chrome := 3
	if m.help.ShowAll {
		chrome += 4
	}
	bodyH := max(m.height-chrome, 2*frameH+2)

	treeW := max(m.width/4, 24)
	rightW := max(m.width-treeW, 2*frameW+16)
	graphH := bodyH * 3 / 5
	tableH := bodyH - graphH

	m.tree.SetSize(treeW-frameW, bodyH-frameH)
	m.graph.SetSize(rightW-frameW, graphH-frameH)
	m.table.SetSize(rightW-frameW, tableH-frameH)
}

func (m Model) paneStyle(p pane) lipgloss.Style {
	if m.focus == p {
		return m.styles.PaneFocus
	}
	return m.styles.Pane
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.styles.Title.Render("xref-tui") + "  " +
		m.styles.Text.Render(string(m.sess.Location.CurrentVerse()))

	treePane := m.paneStyle(paneTree).Render(m.tree.View())
	graphPane := m.paneStyle(paneGraph).Render(m.graph.View())
	tablePane := m.paneStyle(paneTable).Render(m.table.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		treePane,
		lipgloss.JoinVertical(lipgloss.Left, graphPane, tablePane),
	)

	footer := m.help.View(keys)
	if m.prompting {
		footer = m.prompt.View()
	}

	return strings.Join([]string{header, body, m.statusLine(), footer}, "\n")
}

// statusLine shows the latest fetch error, then any transient message, and
// otherwise the shareable URL with the history position.
func (m Model) statusLine() string {
	for _, err := range []error{m.graph.Err(), m.table.Err(), m.tree.Err()} {
		if err != nil {
			return m.styles.Error.Render("Error: " + err.Error())
		}
	}
	if m.status.text != "" {
		if m.status.err {
			return m.styles.Error.Render(m.status.text)
		}
		return m.styles.Text.Render(m.status.text)
	}

	h := m.sess.Location.History()
	line := fmt.Sprintf("%s  [%d/%d]", m.sess.Location.URL(), h.Index()+1, h.Len())
	if m.graph.Loading() || m.table.Loading() {
		line += "  loading..."
	}
	return m.styles.Muted.Render(line)
}
