package tree

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xref-tui/internal/api"
	"xref-tui/internal/location"
	"xref-tui/internal/session"
	"xref-tui/internal/theme"
	"xref-tui/internal/verse"
)

var scriptures = []api.TreeNode{
	{Title: "John", Folder: true, Children: []api.TreeNode{
		{Title: "1", Folder: true, Children: []api.TreeNode{
			{Title: "1", Key: "John 1:1"},
		}},
		{Title: "3", Folder: true, Children: []api.TreeNode{
			{Title: "16", Key: "John 3:16"},
			{Title: "17", Key: "John 3:17"},
		}},
	}},
	{Title: "Helaman", Folder: true, Children: []api.TreeNode{
		{Title: "5", Folder: true, Children: []api.TreeNode{
			{Title: "12", Key: "Hel. 5:12"},
		}},
	}},
}

// fakeFetcher serves the tree and counts what else is asked of it.
type fakeFetcher struct {
	tree     []api.TreeNode
	err      error
	elements []verse.ID
	tables   []verse.ID
}

func (f *fakeFetcher) Elements(_ context.Context, req api.ElementsRequest) (*api.Elements, error) {
	f.elements = append(f.elements, req.Verse)
	return &api.Elements{}, nil
}

func (f *fakeFetcher) Table(_ context.Context, v verse.ID) (string, error) {
	f.tables = append(f.tables, v)
	return "", nil
}

func (f *fakeFetcher) Tree(context.Context) ([]api.TreeNode, error) {
	return f.tree, f.err
}

func newSelector(t *testing.T, fetcher *fakeFetcher) (*Selector, *session.Session) {
	t.Helper()
	loc, err := location.New("http://127.0.0.1:8080/?verse=John+3%3A16", "", nil)
	require.NoError(t, err)
	sess := session.New(context.Background(), fetcher, loc, nil)
	s := NewSelector(sess, theme.Classic.Styles())
	s.SetFocused(true)
	return s, sess
}

func load(t *testing.T, s *Selector, v verse.ID) {
	t.Helper()
	s.Update(s.Init(v)())
}

func TestSelector_LoadMarksInitialVerseSilently(t *testing.T) {
	fetcher := &fakeFetcher{tree: scriptures}
	s, sess := newSelector(t, fetcher)

	load(t, s, "John 3:16")

	require.True(t, s.Loaded())
	assert.Equal(t, verse.ID("John 3:16"), s.Active())
	assert.Empty(t, fetcher.elements)
	assert.Equal(t, 1, sess.Location.History().Len())

	john, _ := s.Node("John 3:16")
	assert.True(t, john.Parent.Expanded)
	assert.True(t, john.Parent.Parent.Expanded)
	assert.Contains(t, s.View(), "16")
}

func TestSelector_SetActiveBeforeLoadIsApplied(t *testing.T) {
	s, _ := newSelector(t, &fakeFetcher{tree: scriptures})
	cmd := s.Init("John 3:16")

	s.SetActive("Hel. 5:12")
	s.Update(cmd())

	assert.Equal(t, verse.ID("Hel. 5:12"), s.Active())
}

func TestSelector_SetActiveUnknownIsNoop(t *testing.T) {
	s, _ := newSelector(t, &fakeFetcher{tree: scriptures})
	load(t, s, "John 3:16")

	s.SetActive("Ether 12:27")

	assert.Equal(t, verse.ID("John 3:16"), s.Active())
}

func TestSelector_SetActiveCollapsesOtherBranches(t *testing.T) {
	s, _ := newSelector(t, &fakeFetcher{tree: scriptures})
	load(t, s, "John 3:16")

	s.SetActive("Hel. 5:12")

	john, _ := s.Node("John 3:16")
	hel, _ := s.Node("Hel. 5:12")
	assert.False(t, john.Parent.Parent.Expanded)
	assert.True(t, hel.Parent.Expanded)
	assert.Equal(t, hel, s.current())
}

func TestSelector_ActivateLeafRunsTransition(t *testing.T) {
	fetcher := &fakeFetcher{tree: scriptures}
	s, sess := newSelector(t, fetcher)
	load(t, s, "John 3:16")

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, verse.ID("John 3:17"), s.current().Key)

	s.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, verse.ID("John 3:17"), s.Active())
	assert.Equal(t, verse.ID("John 3:17"), sess.Location.CurrentVerse())
	assert.Equal(t, 2, sess.Location.History().Len())
}

func TestSelector_ActivateSameLeafTwiceIsGuarded(t *testing.T) {
	fetcher := &fakeFetcher{tree: scriptures}
	s, sess := newSelector(t, fetcher)
	load(t, s, "John 3:16")

	cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, 1, sess.Location.History().Len())
}

func TestSelector_FolderTogglesInsteadOfActivating(t *testing.T) {
	s, sess := newSelector(t, &fakeFetcher{tree: scriptures})
	load(t, s, "John 3:16")

	// Walk up to the "3" chapter folder and close it.
	s.Update(tea.KeyMsg{Type: tea.KeyLeft})
	folder := s.current()
	require.True(t, folder.Folder)
	require.Equal(t, "3", folder.Title)

	cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, folder.Expanded)
	assert.Equal(t, verse.ID("John 3:16"), s.Active())

	s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, folder.Expanded)
	assert.Equal(t, 1, sess.Location.History().Len())
}

func TestSelector_ExpandCollapsesSiblings(t *testing.T) {
	s, _ := newSelector(t, &fakeFetcher{tree: scriptures})
	load(t, s, "John 3:16")

	// Move to the "1" chapter folder above "3".
	s.Update(tea.KeyMsg{Type: tea.KeyUp})
	s.Update(tea.KeyMsg{Type: tea.KeyUp})
	chapter1 := s.current()
	require.Equal(t, "1", chapter1.Title)

	s.Update(tea.KeyMsg{Type: tea.KeyRight})

	john316, _ := s.Node("John 3:16")
	assert.True(t, chapter1.Expanded)
	assert.False(t, john316.Parent.Expanded)
}

func TestSelector_FollowsFocusChanges(t *testing.T) {
	s, sess := newSelector(t, &fakeFetcher{tree: scriptures})
	load(t, s, "John 3:16")

	sess.Transition("Hel. 5:12")
	assert.Equal(t, verse.ID("Hel. 5:12"), s.Active())

	sess.Back()
	assert.Equal(t, verse.ID("John 3:16"), s.Active())
}

func TestSelector_LoadError(t *testing.T) {
	s, _ := newSelector(t, &fakeFetcher{err: errors.New("boom")})
	load(t, s, "John 3:16")

	assert.False(t, s.Loaded())
	assert.Error(t, s.Err())
	assert.Contains(t, s.View(), "Tree unavailable")
}
