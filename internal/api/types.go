package api

import (
	"fmt"

	"xref-tui/internal/verse"
)

type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterIncoming FilterMode = "incoming"
	FilterOutgoing FilterMode = "outgoing"
)

// FilterModes lists the modes in the order the filter control cycles them.
var FilterModes = []FilterMode{FilterAll, FilterIncoming, FilterOutgoing}

func ParseFilterMode(s string) (FilterMode, error) {
	for _, m := range FilterModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown filter mode %q", s)
}

// Next returns the mode after m, wrapping around.
func (m FilterMode) Next() FilterMode {
	for i, mode := range FilterModes {
		if mode == m {
			return FilterModes[(i+1)%len(FilterModes)]
		}
	}
	return FilterAll
}

type EdgeKind string

const (
	KindIncoming  EdgeKind = "incoming"
	KindOutgoing  EdgeKind = "outgoing"
	KindBoth      EdgeKind = "both"
	KindSuggested EdgeKind = "suggested"
)

type ElementsRequest struct {
	Verse            verse.ID   `json:"verse"`
	FilterMode       FilterMode `json:"filter_mode"`
	IncludeSuggested bool       `json:"include_suggested"`
}

// Elements is the graph payload for one verse, in the element format the
// server shares with the browser graph library.
type Elements struct {
	Nodes []NodeElement `json:"nodes"`
	Edges []EdgeElement `json:"edges"`
}

type NodeElement struct {
	Data NodeData `json:"data"`
}

type NodeData struct {
	ID   verse.ID `json:"id"`
	Keep bool     `json:"keep"`
	Hide bool     `json:"hide,omitempty"`
}

type EdgeElement struct {
	Data EdgeData `json:"data"`
}

type EdgeData struct {
	ID     string   `json:"id"`
	Source verse.ID `json:"source"`
	Target verse.ID `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Keep   bool     `json:"keep"`
	Hide   bool     `json:"hide,omitempty"`
}

// TreeNode is one entry of the navigation tree. Folders are books and
// chapters; leaves are keyed by verse.
type TreeNode struct {
	Title    string     `json:"title"`
	Key      verse.ID   `json:"key,omitempty"`
	Folder   bool       `json:"folder,omitempty"`
	Expanded bool       `json:"expanded,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// FetchError is returned for every failed request. It carries the verse that
// was requested; Status is zero when no response arrived.
type FetchError struct {
	Verse  verse.ID
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Verse == "" {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch %q failed: %v", string(e.Verse), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
