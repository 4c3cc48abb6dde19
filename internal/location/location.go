// Package location keeps the focus verse in the page URL and session history.
// The current history entry's URL is the only record of which verse is in
// focus; everything else reads it from here.
package location

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"xref-tui/internal/verse"
)

// QueryParam is the URL query parameter carrying the focus verse.
const QueryParam = "verse"

type Synchronizer struct {
	history  *History
	fallback verse.ID
	logger   *zap.Logger
}

// New starts a history at pageURL. fallback is the verse reported while the
// URL carries none; an empty fallback means verse.Default.
func New(pageURL string, fallback verse.ID, logger *zap.Logger) (*Synchronizer, error) {
	if _, err := url.Parse(pageURL); err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if fallback == "" {
		fallback = verse.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		history:  NewHistory(pageURL),
		fallback: fallback,
		logger:   logger,
	}, nil
}

// CurrentVerse reads the focus verse from the current URL.
func (s *Synchronizer) CurrentVerse() verse.ID {
	return s.verseFromURL(s.history.Current().URL)
}

// URL is the current page URL, suitable for sharing.
func (s *Synchronizer) URL() string {
	return s.history.Current().URL
}

// Commit records v as a new history entry. Other query parameters of the
// current URL are kept. Committing the current verse again pushes a duplicate
// entry.
func (s *Synchronizer) Commit(v verse.ID) {
	u, err := url.Parse(s.history.Current().URL)
	if err != nil {
		// Only parsed URLs are ever stored.
		u = &url.URL{}
	}
	q := u.Query()
	q.Set(QueryParam, string(v))
	u.RawQuery = q.Encode()

	s.history.PushState(&State{Verse: v}, u.String())
	s.logger.Info("committed verse",
		zap.String("verse", string(v)),
		zap.String("url", u.String()),
		zap.Int("history_len", s.history.Len()),
	)
}

// Back and Forward traverse history and return the entry to replay. They never
// push.
func (s *Synchronizer) Back() (Entry, bool)    { return s.history.Back() }
func (s *Synchronizer) Forward() (Entry, bool) { return s.history.Forward() }

// VerseOf returns the verse an entry represents: its state when it has one,
// otherwise whatever its URL says.
func (s *Synchronizer) VerseOf(e Entry) verse.ID {
	if e.State != nil {
		return e.State.Verse
	}
	return s.verseFromURL(e.URL)
}

func (s *Synchronizer) History() *History { return s.history }

func (s *Synchronizer) verseFromURL(raw string) verse.ID {
	u, err := url.Parse(raw)
	if err != nil {
		return s.fallback
	}
	q := u.Query()
	if !q.Has(QueryParam) {
		return s.fallback
	}
	return verse.ID(q.Get(QueryParam))
}
