// Package table shows the server-rendered cross-reference table for the focus
// verse.
package table

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"xref-tui/internal/session"
	"xref-tui/internal/theme"
	"xref-tui/internal/verse"
)

type tableMsg struct {
	seq      uint64
	verse    verse.ID
	fragment string
	err      error
}

// Table holds the latest fragment for the focus verse. The fragment is kept
// exactly as served; only View converts it to text.
type Table struct {
	sess   *session.Session
	styles theme.Styles

	verse    verse.ID
	fragment string
	seq      uint64
	loading  bool
	err      error

	viewport viewport.Model
	focused  bool
	width    int
	height   int
}

// NewTable builds the table and subscribes it to focus changes.
func NewTable(sess *session.Session, styles theme.Styles) *Table {
	t := &Table{
		sess:     sess,
		styles:   styles,
		viewport: viewport.New(60, 10),
		width:    60,
		height:   10,
	}
	sess.Subscribe(func(ev session.FocusChanged) tea.Cmd {
		return t.Refresh(ev.Verse)
	})
	return t
}

// Refresh requests the table for v. A response replaces the content only if
// no later Refresh has been issued.
func (t *Table) Refresh(v verse.ID) tea.Cmd {
	t.seq++
	seq := t.seq
	t.loading = true

	client := t.sess.Client
	ctx := t.sess.Context()
	return func() tea.Msg {
		fragment, err := client.Table(ctx, v)
		return tableMsg{seq: seq, verse: v, fragment: fragment, err: err}
	}
}

func (t *Table) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tableMsg:
		t.apply(msg)
		return nil
	case tea.KeyMsg:
		if !t.focused {
			return nil
		}
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (t *Table) apply(msg tableMsg) {
	log := t.sess.Logger.With(zap.String("verse", string(msg.verse)), zap.Uint64("seq", msg.seq))
	if msg.seq != t.seq {
		log.Debug("dropping stale table", zap.Uint64("latest", t.seq))
		return
	}
	t.loading = false
	if msg.err != nil {
		t.err = msg.err
		log.Error("fetching table failed", zap.Error(msg.err))
		return
	}
	t.err = nil
	t.verse = msg.verse
	t.fragment = msg.fragment
	t.render()
	t.viewport.GotoTop()
	log.Info("rendered table", zap.Int("bytes", len(msg.fragment)))
}

func (t *Table) render() {
	t.viewport.SetContent(Text(t.fragment, t.width))
}

// Fragment is the HTML last received, unmodified.
func (t *Table) Fragment() string         { return t.fragment }
func (t *Table) Verse() verse.ID          { return t.verse }
func (t *Table) Loading() bool            { return t.loading }
func (t *Table) Err() error               { return t.err }
func (t *Table) SetFocused(focused bool)  { t.focused = focused }
func (t *Table) SetStyles(s theme.Styles) { t.styles = s }

func (t *Table) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.viewport.Width = width
	t.viewport.Height = height
	t.render()
}

func (t *Table) View() string {
	if t.fragment == "" {
		if t.loading {
			return t.styles.Muted.Render("Loading...")
		}
		if t.err != nil {
			return t.styles.Error.Render("Table unavailable")
		}
		return ""
	}
	return t.viewport.View()
}

var (
	lineBreaks = regexp.MustCompile(`(?i)<br\s*/?>|</(tr|p|div|li|h[1-6]|caption|thead|tbody|table)>`)
	cellBreaks = regexp.MustCompile(`(?i)</(td|th)>`)
	tags       = regexp.MustCompile(`<[^>]*>`)
)

// Text converts an HTML fragment into plain text wrapped at width. Rows and
// blocks end a line and cells are joined by two spaces. A width below one
// disables wrapping.
func Text(fragment string, width int) string {
	s := lineBreaks.ReplaceAllString(fragment, "\n")
	s = cellBreaks.ReplaceAllString(s, "\t")
	s = tags.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		var cells []string
		for _, cell := range strings.Split(line, "\t") {
			// Fields also splits on the non-breaking spaces inside references.
			if cell = strings.Join(strings.Fields(cell), " "); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) == 0 {
			continue
		}
		line = strings.Join(cells, "  ")
		if width > 0 {
			line = wordwrap.String(line, width)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
