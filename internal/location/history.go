package location

import "xref-tui/internal/verse"

// State is the payload recorded with each committed entry.
type State struct {
	Verse verse.ID `json:"verse"`
}

// Entry is one history record. State is nil for the entry created on start-up,
// before anything was committed.
type Entry struct {
	URL   string
	State *State
}

// History is an in-memory session history with the semantics of the browser's:
// pushing truncates forward entries, traversal only moves the index.
type History struct {
	entries []Entry
	index   int
}

func NewHistory(initialURL string) *History {
	return &History{entries: []Entry{{URL: initialURL}}}
}

// PushState appends an entry after the current one and makes it current.
func (h *History) PushState(state *State, url string) {
	h.entries = append(h.entries[:h.index+1], Entry{URL: url, State: state})
	h.index = len(h.entries) - 1
}

// Go moves delta entries through history and returns the entry to replay.
// It reports false and stays put when the target is out of range.
func (h *History) Go(delta int) (Entry, bool) {
	target := h.index + delta
	if delta == 0 || target < 0 || target >= len(h.entries) {
		return Entry{}, false
	}
	h.index = target
	return h.entries[target], true
}

func (h *History) Back() (Entry, bool)    { return h.Go(-1) }
func (h *History) Forward() (Entry, bool) { return h.Go(1) }

func (h *History) Current() Entry { return h.entries[h.index] }
func (h *History) Len() int       { return len(h.entries) }
func (h *History) Index() int     { return h.index }

func (h *History) CanGoBack() bool    { return h.index > 0 }
func (h *History) CanGoForward() bool { return h.index < len(h.entries)-1 }
