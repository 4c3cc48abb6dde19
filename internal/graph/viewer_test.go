package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xref-tui/internal/api"
	"xref-tui/internal/api/apitest"
	"xref-tui/internal/location"
	"xref-tui/internal/session"
	"xref-tui/internal/theme"
	"xref-tui/internal/verse"
)

type fixture struct {
	srv    *apitest.Server
	sess   *session.Session
	viewer *Viewer
}

func newFixture(t *testing.T, pageQuery string) *fixture {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	srv.SetConnections("John 3:16", apitest.Connections{
		Incoming:  []verse.ID{"Hel. 5:12"},
		Outgoing:  []verse.ID{"John 1:1"},
		Suggested: []verse.ID{"Rom. 5:8"},
	})
	srv.SetConnections("Hel. 5:12", apitest.Connections{
		Outgoing: []verse.ID{"John 3:16", "Alma 32:21"},
	})
	srv.SetConnections("John 1:1", apitest.Connections{
		Incoming: []verse.ID{"John 3:16"},
	})

	client, err := api.NewClient(srv.PageURL(), 0)
	require.NoError(t, err)
	loc, err := location.New(srv.PageURL()+pageQuery, "", nil)
	require.NoError(t, err)

	sess := session.New(context.Background(), client, loc, nil)
	v := NewViewer(sess, theme.Classic.Styles(), Options{})
	v.SetFocused(true)
	return &fixture{srv: srv, sess: sess, viewer: v}
}

// run executes cmd and feeds the result back to the viewer.
func (f *fixture) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			f.run(c)
		}
		return
	}
	f.run(f.viewer.Update(msg))
}

func nodeIDs(d *Diagram) []verse.ID {
	return ids(d.Nodes())
}

func TestViewer_InitFetchesAndCommits(t *testing.T) {
	f := newFixture(t, "")

	f.run(f.viewer.Init("John 3:16"))

	assert.Equal(t, verse.ID("John 3:16"), f.viewer.FocusVerse())
	assert.ElementsMatch(t, []verse.ID{"John 3:16", "Hel. 5:12", "John 1:1"}, nodeIDs(f.viewer.Diagram()))
	assert.Equal(t, 2, f.sess.Location.History().Len())
	assert.Equal(t, verse.ID("John 3:16"), f.sess.Location.CurrentVerse())
	assert.Len(t, f.srv.Requests("/elements"), 1)
}

func TestViewer_FocusClearReplaces(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))

	f.run(f.viewer.Focus("John 1:1", true))

	assert.ElementsMatch(t, []verse.ID{"John 1:1", "John 3:16"}, nodeIDs(f.viewer.Diagram()))
	assert.Equal(t, verse.ID("John 1:1"), f.viewer.FocusVerse())
}

func TestViewer_FocusMergeUnion(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))

	f.run(f.viewer.Focus("Hel. 5:12", false))

	assert.ElementsMatch(t,
		[]verse.ID{"John 3:16", "Hel. 5:12", "John 1:1", "Alma 32:21"},
		nodeIDs(f.viewer.Diagram()))
	assert.Equal(t, verse.ID("John 3:16"), f.viewer.FocusVerse())
}

func TestViewer_DropsStaleResponses(t *testing.T) {
	f := newFixture(t, "")

	first := f.viewer.Focus("Hel. 5:12", true)
	second := f.viewer.Focus("John 1:1", true)

	// Responses arrive in reverse order.
	f.run(second)
	f.run(first)

	assert.Equal(t, verse.ID("John 1:1"), f.viewer.FocusVerse())
	assert.ElementsMatch(t, []verse.ID{"John 1:1", "John 3:16"}, nodeIDs(f.viewer.Diagram()))
	assert.False(t, f.viewer.Loading())
}

func TestViewer_ActivateRunsTransition(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))
	f.srv.Reset()

	// Order is focus, then "Hel. 5:12" in the incoming column.
	f.viewer.Update(tea.KeyMsg{Type: tea.KeyDown})
	selected, ok := f.viewer.Selected()
	require.True(t, ok)
	require.Equal(t, verse.ID("Hel. 5:12"), selected)

	f.run(f.viewer.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	reqs := f.srv.Requests("/elements")
	require.Len(t, reqs, 1)
	var body api.ElementsRequest
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	assert.Equal(t, verse.ID("Hel. 5:12"), body.Verse)
	assert.Equal(t, verse.ID("Hel. 5:12"), f.sess.Location.CurrentVerse())
	assert.Equal(t, 3, f.sess.Location.History().Len())
}

func TestViewer_ActivateFocusNodeIsNoop(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))
	f.srv.Reset()

	cmd := f.viewer.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, f.srv.Requests("/elements"))
	assert.Equal(t, 2, f.sess.Location.History().Len())
}

func TestViewer_ToggleSuggestedRefetchesWithoutHistory(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))
	f.srv.Reset()

	f.run(f.viewer.ToggleSuggested())

	reqs := f.srv.Requests("/elements")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"verse":"John 3:16","filter_mode":"all","include_suggested":true}`, reqs[0].Body)
	assert.Contains(t, nodeIDs(f.viewer.Diagram()), verse.ID("Rom. 5:8"))
	assert.Equal(t, 2, f.sess.Location.History().Len())

	f.run(f.viewer.CycleFilterMode())
	assert.Equal(t, api.FilterIncoming, f.viewer.Options().FilterMode)
	assert.JSONEq(t, `{"verse":"John 3:16","filter_mode":"incoming","include_suggested":true}`, f.srv.Requests("/elements")[1].Body)
}

func TestViewer_ExpandMergesSelected(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))

	f.viewer.Update(tea.KeyMsg{Type: tea.KeyDown})
	f.run(f.viewer.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}))

	assert.Contains(t, nodeIDs(f.viewer.Diagram()), verse.ID("Alma 32:21"))
	assert.Equal(t, verse.ID("John 3:16"), f.viewer.FocusVerse())
	selected, _ := f.viewer.Selected()
	assert.Equal(t, verse.ID("Hel. 5:12"), selected)
	assert.Equal(t, 2, f.sess.Location.History().Len())
}

func TestViewer_FetchErrorKeepsDiagram(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))
	f.srv.Fail("John 1:1", http.StatusInternalServerError)

	f.run(f.viewer.Focus("John 1:1", true))

	var fetchErr *api.FetchError
	require.ErrorAs(t, f.viewer.Err(), &fetchErr)
	assert.Equal(t, verse.ID("John 1:1"), fetchErr.Verse)
	assert.Equal(t, verse.ID("John 3:16"), f.viewer.FocusVerse())
	assert.Contains(t, f.viewer.View(), "John 3:16")
}

func TestViewer_SubscribesToFocusChanges(t *testing.T) {
	f := newFixture(t, "?verse=John+3%3A16")

	f.run(f.sess.Transition("John 1:1"))

	assert.Equal(t, verse.ID("John 1:1"), f.viewer.FocusVerse())
}

func TestViewer_ExpandDuringRedrawIsIgnored(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))
	f.viewer.Update(tea.KeyMsg{Type: tea.KeyDown})
	f.srv.Reset()

	transition := f.sess.Transition("John 1:1")
	expand := f.viewer.Expand()
	f.run(transition)
	f.run(expand)

	assert.Nil(t, expand)
	assert.Len(t, f.srv.Requests("/elements"), 1)
	assert.Equal(t, f.sess.Location.CurrentVerse(), f.viewer.FocusVerse())
	assert.Equal(t, verse.ID("John 1:1"), f.viewer.FocusVerse())
	assert.NotContains(t, nodeIDs(f.viewer.Diagram()), verse.ID("Alma 32:21"))
}

func TestViewer_RedrawSupersedesMergeInFlight(t *testing.T) {
	f := newFixture(t, "")
	f.run(f.viewer.Init("John 3:16"))
	f.viewer.Update(tea.KeyMsg{Type: tea.KeyDown})

	expand := f.viewer.Expand()
	require.NotNil(t, expand)
	transition := f.sess.Transition("John 1:1")

	// The merge lands last but belongs to the old focus.
	f.run(transition)
	f.run(expand)

	assert.Equal(t, verse.ID("John 1:1"), f.viewer.FocusVerse())
	assert.NotContains(t, nodeIDs(f.viewer.Diagram()), verse.ID("Alma 32:21"))

	// Once the redraw has landed, expanding works again.
	f.viewer.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.NotNil(t, f.viewer.Expand())
}
