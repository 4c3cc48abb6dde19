// Package tree is the navigation sidebar: books and chapters as folders,
// verses as leaves keyed by verse id.
package tree

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"xref-tui/internal/api"
	"xref-tui/internal/session"
	"xref-tui/internal/theme"
	"xref-tui/internal/verse"
)

type Node struct {
	Title    string
	Key      verse.ID
	Folder   bool
	Expanded bool
	Children []*Node
	Parent   *Node
	depth    int
}

type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Collapse key.Binding
	Expand   key.Binding
	Activate key.Binding
}

var Keys = KeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/left", "collapse")),
	Expand:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/right", "expand")),
	Activate: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open verse")),
}

type treeMsg struct {
	nodes []api.TreeNode
	err   error
}

// Selector is the navigation tree. Expanding a folder collapses its siblings,
// folders cannot be activated, and the active node is kept on screen.
type Selector struct {
	sess   *session.Session
	styles theme.Styles

	roots   []*Node
	byKey   map[verse.ID]*Node
	loaded  bool
	pending verse.ID
	active  *Node
	err     error

	rows    []*Node
	cursor  int
	offset  int
	focused bool
	width   int
	height  int
}

// NewSelector builds the selector and subscribes it to focus changes.
func NewSelector(sess *session.Session, styles theme.Styles) *Selector {
	s := &Selector{
		sess:   sess,
		styles: styles,
		byKey:  make(map[verse.ID]*Node),
		width:  30,
		height: 20,
	}
	sess.Subscribe(func(ev session.FocusChanged) tea.Cmd {
		s.SetActive(ev.Verse)
		return nil
	})
	return s
}

// Init loads the tree. Once it arrives, the most recently requested verse
// (initially v) becomes active without raising an activation.
func (s *Selector) Init(v verse.ID) tea.Cmd {
	s.pending = v
	client := s.sess.Client
	ctx := s.sess.Context()
	return func() tea.Msg {
		nodes, err := client.Tree(ctx)
		return treeMsg{nodes: nodes, err: err}
	}
}

// SetActive marks the node keyed v as active and scrolls it into view. It
// never starts a transition. Unknown keys and folders are ignored.
func (s *Selector) SetActive(v verse.ID) {
	if !s.loaded {
		s.pending = v
		return
	}
	node, ok := s.byKey[v]
	if !ok || node.Folder {
		return
	}
	s.active = node
	s.makeVisible(node)
}

func (s *Selector) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case treeMsg:
		s.load(msg)
	case tea.KeyMsg:
		if !s.focused || !s.loaded {
			return nil
		}
		switch {
		case key.Matches(msg, Keys.Up):
			s.moveCursor(-1)
		case key.Matches(msg, Keys.Down):
			s.moveCursor(1)
		case key.Matches(msg, Keys.Collapse):
			s.collapse()
		case key.Matches(msg, Keys.Expand):
			s.expand()
		case key.Matches(msg, Keys.Activate):
			return s.activate()
		}
	}
	return nil
}

func (s *Selector) load(msg treeMsg) {
	if msg.err != nil {
		s.err = msg.err
		s.sess.Logger.Error("loading navigation tree failed", zap.Error(msg.err))
		return
	}
	s.err = nil
	s.roots = nil
	s.byKey = make(map[verse.ID]*Node)
	for _, n := range msg.nodes {
		s.roots = append(s.roots, s.build(n, nil, 0))
	}
	s.loaded = true
	s.sess.Logger.Info("navigation tree loaded", zap.Int("nodes", len(s.byKey)))

	s.rebuildRows()
	if s.pending != "" {
		s.SetActive(s.pending)
		s.pending = ""
	}
}

func (s *Selector) build(src api.TreeNode, parent *Node, depth int) *Node {
	n := &Node{
		Title:    src.Title,
		Key:      src.Key,
		Folder:   src.Folder || len(src.Children) > 0,
		Expanded: src.Expanded,
		Parent:   parent,
		depth:    depth,
	}
	if n.Key != "" {
		s.byKey[n.Key] = n
	}
	for _, child := range src.Children {
		n.Children = append(n.Children, s.build(child, n, depth+1))
	}
	return n
}

// activate is the click on the row under the cursor. Folders toggle instead
// of activating.
func (s *Selector) activate() tea.Cmd {
	node := s.current()
	if node == nil {
		return nil
	}
	if node.Folder {
		if node.Expanded {
			node.Expanded = false
			s.rebuildRows()
		} else {
			s.expandNode(node)
		}
		return nil
	}
	s.active = node
	return s.sess.Transition(node.Key)
}

func (s *Selector) expand() {
	node := s.current()
	if node == nil || !node.Folder {
		return
	}
	if !node.Expanded {
		s.expandNode(node)
		return
	}
	if len(node.Children) > 0 {
		s.moveCursor(1)
	}
}

func (s *Selector) collapse() {
	node := s.current()
	if node == nil {
		return
	}
	if node.Folder && node.Expanded {
		node.Expanded = false
		s.rebuildRows()
		return
	}
	if node.Parent != nil {
		s.cursorTo(node.Parent)
	}
}

// expandNode opens node and closes its expanded siblings.
func (s *Selector) expandNode(node *Node) {
	for _, sibling := range s.siblings(node) {
		if sibling != node {
			sibling.Expanded = false
		}
	}
	node.Expanded = true
	s.rebuildRows()
	s.cursorTo(node)
}

func (s *Selector) siblings(node *Node) []*Node {
	if node.Parent == nil {
		return s.roots
	}
	return node.Parent.Children
}

// makeVisible opens the path to node, closing every other branch on the way,
// and moves the cursor onto it.
func (s *Selector) makeVisible(node *Node) {
	var path []*Node
	for p := node.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}
	for i := len(path) - 1; i >= 0; i-- {
		for _, sibling := range s.siblings(path[i]) {
			if sibling != path[i] {
				sibling.Expanded = false
			}
		}
		path[i].Expanded = true
	}
	s.rebuildRows()
	s.cursorTo(node)
}

func (s *Selector) rebuildRows() {
	current := s.current()
	s.rows = s.rows[:0]
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			s.rows = append(s.rows, n)
			if n.Folder && n.Expanded {
				walk(n.Children)
			}
		}
	}
	walk(s.roots)
	if current != nil {
		s.cursorTo(current)
	}
	s.clampCursor()
}

func (s *Selector) current() *Node {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return nil
	}
	return s.rows[s.cursor]
}

func (s *Selector) cursorTo(node *Node) {
	for i, n := range s.rows {
		if n == node {
			s.cursor = i
			s.scrollIntoView()
			return
		}
	}
}

func (s *Selector) moveCursor(delta int) {
	s.cursor += delta
	s.clampCursor()
}

func (s *Selector) clampCursor() {
	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.scrollIntoView()
}

func (s *Selector) scrollIntoView() {
	visible := s.visibleRows()
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

func (s *Selector) visibleRows() int {
	if s.height < 1 {
		return 1
	}
	return s.height
}

// Active returns the key of the active node, or "" if none.
func (s *Selector) Active() verse.ID {
	if s.active == nil {
		return ""
	}
	return s.active.Key
}

// Node looks up a node by key.
func (s *Selector) Node(v verse.ID) (*Node, bool) {
	n, ok := s.byKey[v]
	return n, ok
}

func (s *Selector) Loaded() bool              { return s.loaded }
func (s *Selector) Err() error                { return s.err }
func (s *Selector) SetFocused(focused bool)   { s.focused = focused }
func (s *Selector) SetStyles(st theme.Styles) { s.styles = st }

func (s *Selector) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.scrollIntoView()
}

func (s *Selector) View() string {
	if !s.loaded {
		if s.err != nil {
			return s.styles.Error.Render("Tree unavailable")
		}
		return s.styles.Muted.Render("Loading...")
	}

	end := s.offset + s.visibleRows()
	if end > len(s.rows) {
		end = len(s.rows)
	}
	lines := make([]string, 0, end-s.offset)
	for i := s.offset; i < end; i++ {
		n := s.rows[i]
		marker := "  "
		if n.Folder {
			marker = "▸ "
			if n.Expanded {
				marker = "▾ "
			}
		}
		label := strings.Repeat("  ", n.depth) + marker + n.Title

		style := s.styles.Text
		if n.Folder {
			style = s.styles.Muted
		}
		if n == s.active {
			style = s.styles.Active
		}
		if s.focused && i == s.cursor {
			style = style.Inherit(s.styles.Selected)
		}
		lines = append(lines, style.MaxWidth(s.width).Render(label))
	}
	return strings.Join(lines, "\n")
}
