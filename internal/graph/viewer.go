package graph

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"xref-tui/internal/api"
	"xref-tui/internal/session"
	"xref-tui/internal/theme"
	"xref-tui/internal/verse"
)

type Options struct {
	FilterMode       api.FilterMode
	IncludeSuggested bool
}

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Open   key.Binding
	Expand key.Binding
}

var Keys = KeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "prev node")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "next node")),
	Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/left", "prev column")),
	Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/right", "next column")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "focus node")),
	Expand: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "expand node")),
}

// elementsMsg carries a response to the request stamped seq.
type elementsMsg struct {
	seq      uint64
	verse    verse.ID
	clear    bool
	elements *api.Elements
	err      error
}

// Viewer draws the focus verse and its cross-references.
type Viewer struct {
	sess    *session.Session
	styles  theme.Styles
	opts    Options
	diagram *Diagram
	layout  Layout

	focus   verse.ID
	seq     uint64
	cursor  int
	loading bool
	err     error
	// redrawing is set while a clearing request is outstanding.
	redrawing bool

	focused bool
	width   int
	height  int
}

// NewViewer builds the viewer and subscribes it to focus changes.
func NewViewer(sess *session.Session, styles theme.Styles, opts Options) *Viewer {
	if opts.FilterMode == "" {
		opts.FilterMode = api.FilterAll
	}
	v := &Viewer{
		sess:    sess,
		styles:  styles,
		opts:    opts,
		diagram: NewDiagram(),
		width:   60,
		height:  20,
	}
	sess.Subscribe(func(ev session.FocusChanged) tea.Cmd {
		return v.Focus(ev.Verse, true)
	})
	return v
}

// Init requests the first diagram and records the starting verse in history.
func (v *Viewer) Init(focus verse.ID) tea.Cmd {
	cmd := v.Focus(focus, true)
	v.sess.Location.Commit(focus)
	return cmd
}

// Focus requests the elements around target. With clear the diagram is
// replaced once they arrive; otherwise they are merged in. Only the response
// to the most recent request is applied, so a merge is refused while a
// redraw is outstanding: it would otherwise discard the new focus.
func (v *Viewer) Focus(target verse.ID, clear bool) tea.Cmd {
	if !clear && v.redrawing {
		v.sess.Logger.Debug("ignoring merge during redraw", zap.String("verse", string(target)))
		return nil
	}
	v.seq++
	seq := v.seq
	v.loading = true
	if clear {
		v.redrawing = true
	}

	req := api.ElementsRequest{
		Verse:            target,
		FilterMode:       v.opts.FilterMode,
		IncludeSuggested: v.opts.IncludeSuggested,
	}
	client := v.sess.Client
	ctx := v.sess.Context()
	return func() tea.Msg {
		els, err := client.Elements(ctx, req)
		return elementsMsg{seq: seq, verse: target, clear: clear, elements: els, err: err}
	}
}

// Expand merges the selected node's neighbourhood into the diagram without
// moving focus.
func (v *Viewer) Expand() tea.Cmd {
	id, ok := v.Selected()
	if !ok || id == v.focus {
		return nil
	}
	return v.Focus(id, false)
}

// Activate is the node click: focus moves to the selected node unless it is
// already the verse in the URL.
func (v *Viewer) Activate() tea.Cmd {
	id, ok := v.Selected()
	if !ok || id == v.sess.Location.CurrentVerse() {
		return nil
	}
	return v.sess.Transition(id)
}

// CycleFilterMode and ToggleSuggested redraw the current verse with new
// options. They do not touch history.
func (v *Viewer) CycleFilterMode() tea.Cmd {
	v.opts.FilterMode = v.opts.FilterMode.Next()
	return v.Focus(v.sess.Location.CurrentVerse(), true)
}

func (v *Viewer) ToggleSuggested() tea.Cmd {
	v.opts.IncludeSuggested = !v.opts.IncludeSuggested
	return v.Focus(v.sess.Location.CurrentVerse(), true)
}

func (v *Viewer) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case elementsMsg:
		v.apply(msg)
	case tea.KeyMsg:
		if !v.focused {
			return nil
		}
		switch {
		case key.Matches(msg, Keys.Up):
			v.move(-1)
		case key.Matches(msg, Keys.Down):
			v.move(1)
		case key.Matches(msg, Keys.Left):
			v.moveColumn(-1)
		case key.Matches(msg, Keys.Right):
			v.moveColumn(1)
		case key.Matches(msg, Keys.Open):
			return v.Activate()
		case key.Matches(msg, Keys.Expand):
			return v.Expand()
		}
	}
	return nil
}

func (v *Viewer) apply(msg elementsMsg) {
	log := v.sess.Logger.With(zap.String("verse", string(msg.verse)), zap.Uint64("seq", msg.seq))
	if msg.seq != v.seq {
		log.Debug("dropping stale elements", zap.Uint64("latest", v.seq))
		return
	}
	v.loading = false
	v.redrawing = false
	if msg.err != nil {
		v.err = msg.err
		log.Error("fetching elements failed", zap.Error(msg.err))
		return
	}
	v.err = nil

	selected, _ := v.Selected()
	if msg.clear {
		v.diagram.Clear()
		v.focus = msg.verse
		selected = msg.verse
	}
	v.diagram.Add(msg.elements)
	v.relayout(selected)

	nodes, edges := v.diagram.Len()
	log.Info("rendered elements", zap.Bool("clear", msg.clear), zap.Int("nodes", nodes), zap.Int("edges", edges))
}

// relayout runs the layout pass and keeps the cursor on selected if it is
// still drawn.
func (v *Viewer) relayout(selected verse.ID) {
	v.layout = v.diagram.Layout(v.focus)
	v.cursor = 0
	if i := v.layout.Index(selected); i >= 0 {
		v.cursor = i
	}
}

func (v *Viewer) move(delta int) {
	n := len(v.layout.Order)
	if n == 0 {
		return
	}
	v.cursor = (v.cursor + delta + n) % n
}

func (v *Viewer) moveColumn(delta int) {
	var stops []int
	if v.layout.Focus != nil {
		stops = append(stops, 0)
	}
	for c := range v.layout.Columns {
		stops = append(stops, v.layout.ColumnStart(c))
	}
	if len(stops) == 0 {
		return
	}
	cur := 0
	for i, stop := range stops {
		if v.cursor >= stop {
			cur = i
		}
	}
	v.cursor = stops[(cur+delta+len(stops))%len(stops)]
}

func (v *Viewer) Selected() (verse.ID, bool) {
	if v.cursor < 0 || v.cursor >= len(v.layout.Order) {
		return "", false
	}
	return v.layout.Order[v.cursor], true
}

func (v *Viewer) Diagram() *Diagram        { return v.diagram }
func (v *Viewer) FocusVerse() verse.ID     { return v.focus }
func (v *Viewer) Options() Options         { return v.opts }
func (v *Viewer) Loading() bool            { return v.loading }
func (v *Viewer) Err() error               { return v.err }
func (v *Viewer) SetFocused(focused bool)  { v.focused = focused }
func (v *Viewer) SetStyles(s theme.Styles) { v.styles = s }

func (v *Viewer) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *Viewer) View() string {
	var b strings.Builder

	suggested := "off"
	if v.opts.IncludeSuggested {
		suggested = "on"
	}
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("filter: %s · suggested: %s", v.opts.FilterMode, suggested)))
	b.WriteString("\n")

	if v.layout.Focus == nil {
		if v.loading {
			b.WriteString(v.styles.Muted.Render("Loading..."))
		}
		return b.String()
	}

	focus := v.styles.Focus.Render(string(v.layout.Focus.ID))
	if v.focused && v.cursor == 0 {
		focus = v.styles.Focus.Reverse(true).Render(string(v.layout.Focus.ID))
	}
	b.WriteString(focus)
	b.WriteString("\n")

	if len(v.layout.Columns) == 0 {
		b.WriteString(v.styles.Muted.Render("No cross-references."))
		return b.String()
	}

	colWidth := v.width / len(v.layout.Columns)
	if colWidth < 16 {
		colWidth = 16
	}
	rows := v.height - 4
	if rows < 1 {
		rows = 1
	}

	index := v.layout.ColumnStart(0)
	cols := make([]string, 0, len(v.layout.Columns))
	for _, col := range v.layout.Columns {
		cols = append(cols, v.renderColumn(col, index, colWidth, rows))
		index += len(col.Nodes)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	return b.String()
}

func (v *Viewer) renderColumn(col Column, start, width, rows int) string {
	lines := []string{v.styles.Title.Render(col.Group.String())}

	// Keep the cursor row on screen when the column is taller than the pane.
	offset := 0
	if v.cursor >= start && v.cursor < start+len(col.Nodes) && v.cursor-start >= rows {
		offset = v.cursor - start - rows + 1
	}

	for i := offset; i < len(col.Nodes) && i-offset < rows; i++ {
		p := col.Nodes[i]
		label := arrow(p.Group) + " " + string(p.ID)
		if p.Via != "" {
			label += " (via " + string(p.Via) + ")"
		}
		style := v.kindStyle(p)
		if v.focused && start+i == v.cursor {
			style = style.Inherit(v.styles.Selected)
		}
		lines = append(lines, style.MaxWidth(width-1).Render(label))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (v *Viewer) kindStyle(p Placed) lipgloss.Style {
	if p.Hidden {
		return v.styles.Hidden
	}
	switch p.Group {
	case GroupIncoming:
		return v.styles.Incoming
	case GroupOutgoing:
		return v.styles.Outgoing
	case GroupMutual:
		return v.styles.Mutual
	case GroupSuggested:
		return v.styles.Suggested
	}
	return v.styles.Text
}

func arrow(g Group) string {
	switch g {
	case GroupIncoming:
		return "←"
	case GroupOutgoing:
		return "→"
	case GroupMutual:
		return "↔"
	case GroupSuggested:
		return "⇢"
	}
	return "·"
}
