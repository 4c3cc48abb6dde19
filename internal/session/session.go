// Package session holds the state shared by the explorer's panes for one run:
// the focus verse (through the location synchronizer), the API client, the
// logger, and the FocusChanged subscribers.
package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"xref-tui/internal/api"
	"xref-tui/internal/location"
	"xref-tui/internal/verse"
)

// Fetcher is the server as the panes see it.
type Fetcher interface {
	Elements(ctx context.Context, req api.ElementsRequest) (*api.Elements, error)
	Table(ctx context.Context, v verse.ID) (string, error)
	Tree(ctx context.Context) ([]api.TreeNode, error)
}

type Origin int

const (
	// OriginInteraction is a focus change the user asked for directly.
	OriginInteraction Origin = iota
	// OriginHistory is a replay of a history entry.
	OriginHistory
)

func (o Origin) String() string {
	if o == OriginHistory {
		return "history"
	}
	return "interaction"
}

// FocusChanged is published whenever the focus verse moves.
type FocusChanged struct {
	Verse  verse.ID
	Origin Origin
}

// Handler reacts to a focus change, usually by starting a fetch.
type Handler func(FocusChanged) tea.Cmd

type Session struct {
	ID       string
	Client   Fetcher
	Location *location.Synchronizer
	Logger   *zap.Logger

	// ctx is kept because a tea.Cmd takes no arguments. Panes capture it
	// when they build a fetch, and cancelling it on quit aborts requests
	// still in flight.
	ctx      context.Context
	handlers []Handler
}

func New(ctx context.Context, client Fetcher, loc *location.Synchronizer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		Client:   client,
		Location: loc,
		Logger:   logger.With(zap.String("session", id)),
		ctx:      ctx,
	}
}

// Context is the context fetches run under.
func (s *Session) Context() context.Context { return s.ctx }

// Subscribe registers h. Handlers run in registration order.
func (s *Session) Subscribe(h Handler) {
	s.handlers = append(s.handlers, h)
}

func (s *Session) publish(ev FocusChanged) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(s.handlers))
	for _, h := range s.handlers {
		cmds = append(cmds, h(ev))
	}
	return tea.Batch(cmds...)
}

// Transition moves focus to v on behalf of the user: every pane is refreshed
// and v is committed to history. Asking for the verse already in the URL does
// nothing.
func (s *Session) Transition(v verse.ID) tea.Cmd {
	if v == s.Location.CurrentVerse() {
		s.Logger.Debug("focus unchanged", zap.String("verse", string(v)))
		return nil
	}
	cmd := s.publish(FocusChanged{Verse: v, Origin: OriginInteraction})
	s.Location.Commit(v)
	return cmd
}

// OnPopState replays e to every pane. It must not commit: a push during a
// traversal would drop the forward entries.
func (s *Session) OnPopState(e location.Entry) tea.Cmd {
	v := s.Location.VerseOf(e)
	s.Logger.Info("replaying history entry",
		zap.String("verse", string(v)),
		zap.Int("history_index", s.Location.History().Index()),
	)
	return s.publish(FocusChanged{Verse: v, Origin: OriginHistory})
}

func (s *Session) Back() tea.Cmd {
	e, ok := s.Location.Back()
	if !ok {
		return nil
	}
	return s.OnPopState(e)
}

func (s *Session) Forward() tea.Cmd {
	e, ok := s.Location.Forward()
	if !ok {
		return nil
	}
	return s.OnPopState(e)
}
