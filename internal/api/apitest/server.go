// Package apitest runs an in-process cross-reference server for tests. It
// serves the same three endpoints as the real server and records every request
// it receives.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"xref-tui/internal/api"
	"xref-tui/internal/verse"
)

// Request is a recorded call.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

// Connections are the cross-references of one verse.
type Connections struct {
	Incoming  []verse.ID
	Outgoing  []verse.ID
	Suggested []verse.ID
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	requests    []Request
	connections map[verse.ID]Connections
	tables      map[verse.ID]string
	tree        []api.TreeNode
	failing     map[verse.ID]int
}

// New starts a server. Callers must Close it.
func New() *Server {
	s := &Server{
		connections: make(map[verse.ID]Connections),
		tables:      make(map[verse.ID]string),
		failing:     make(map[verse.ID]int),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/elements", s.handleElements)
	r.Post("/table", s.handleTable)
	r.Get("/tree", s.handleTree)

	s.Server = httptest.NewServer(r)
	return s
}

// PageURL returns the page URL of the server root.
func (s *Server) PageURL() string {
	return s.Server.URL + "/"
}

func (s *Server) SetConnections(v verse.ID, c Connections) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[v] = c
}

func (s *Server) SetTable(v verse.ID, fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[v] = fragment
}

func (s *Server) SetTree(nodes []api.TreeNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = nodes
}

// Fail makes every request for v answer with status.
func (s *Server) Fail(v verse.ID, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[v] = status
}

// Requests returns the recorded calls to path, oldest first.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Reset forgets recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	var req api.ElementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	status, failing := s.failing[req.Verse]
	conns, ok := s.connections[req.Verse]
	s.mu.Unlock()

	if failing {
		http.Error(w, "forced failure", status)
		return
	}
	if !ok {
		http.Error(w, "unknown verse", http.StatusInternalServerError)
		return
	}
	writeJSON(w, BuildElements(req.Verse, conns, req.FilterMode, req.IncludeSuggested))
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	v := verse.ID(body)

	s.mu.Lock()
	status, failing := s.failing[v]
	fragment, ok := s.tables[v]
	s.mu.Unlock()

	if failing {
		http.Error(w, "forced failure", status)
		return
	}
	if !ok {
		http.Error(w, "unknown verse", http.StatusInternalServerError)
		return
	}
	writeJSON(w, fragment)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tree := s.tree
	s.mu.Unlock()
	writeJSON(w, tree)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// BuildElements renders the neighbourhood of v the way the production server
// does: filtered-out elements are still sent, flagged hidden, and suggested
// references are dropped unless requested.
func BuildElements(v verse.ID, c Connections, mode api.FilterMode, includeSuggested bool) api.Elements {
	incoming := toSet(c.Incoming)
	outgoing := toSet(c.Outgoing)
	suggested := toSet(c.Suggested)
	if !includeSuggested {
		suggested = map[verse.ID]bool{}
	}

	unique := map[verse.ID]bool{v: true}
	for _, set := range []map[verse.ID]bool{incoming, outgoing, suggested} {
		for id := range set {
			unique[id] = true
		}
	}

	var els api.Elements
	for _, id := range sorted(unique) {
		keep := id == v ||
			(mode == api.FilterAll && (incoming[id] || outgoing[id])) ||
			(mode == api.FilterIncoming && incoming[id]) ||
			(mode == api.FilterOutgoing && outgoing[id]) ||
			(includeSuggested && suggested[id])
		els.Nodes = append(els.Nodes, api.NodeElement{Data: api.NodeData{ID: id, Keep: keep, Hide: !keep}})
	}

	addEdge := func(id string, source, target verse.ID, kind api.EdgeKind, keep bool) {
		els.Edges = append(els.Edges, api.EdgeElement{Data: api.EdgeData{
			ID: id, Source: source, Target: target, Kind: kind, Keep: keep, Hide: !keep,
		}})
	}
	for _, id := range sorted(incoming) {
		if !outgoing[id] {
			addEdge(string(v)+" <- "+string(id), id, v, api.KindIncoming, mode != api.FilterOutgoing)
		}
	}
	for _, id := range sorted(outgoing) {
		if !incoming[id] {
			addEdge(string(v)+" -> "+string(id), v, id, api.KindOutgoing, mode != api.FilterIncoming)
		}
	}
	for _, id := range sorted(incoming) {
		if outgoing[id] {
			addEdge(string(v)+" <-> "+string(id), v, id, api.KindBoth, true)
		}
	}
	for _, id := range sorted(suggested) {
		addEdge(string(v)+" <?> "+string(id), v, id, api.KindSuggested, true)
	}
	return els
}

func toSet(ids []verse.ID) map[verse.ID]bool {
	set := make(map[verse.ID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sorted(set map[verse.ID]bool) []verse.ID {
	ids := make([]verse.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
