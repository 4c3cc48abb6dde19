package graph

import (
	"sort"

	"xref-tui/internal/api"
	"xref-tui/internal/verse"
)

type Node struct {
	ID     verse.ID
	Hidden bool
}

type Edge struct {
	ID     string
	Source verse.ID
	Target verse.ID
	Kind   api.EdgeKind
	Hidden bool
}

// Diagram is the set of elements currently drawn. Elements keep their
// insertion order; an element whose id is already present is not replaced.
type Diagram struct {
	nodes     map[verse.ID]Node
	nodeOrder []verse.ID
	edges     map[string]Edge
	edgeOrder []string
}

func NewDiagram() *Diagram {
	return &Diagram{
		nodes: make(map[verse.ID]Node),
		edges: make(map[string]Edge),
	}
}

// Clear removes every element.
func (d *Diagram) Clear() {
	d.nodes = make(map[verse.ID]Node)
	d.nodeOrder = nil
	d.edges = make(map[string]Edge)
	d.edgeOrder = nil
}

// Add merges els into the diagram. Nodes are added before edges so that an
// edge may reference a node from the same payload; edges whose endpoints are
// missing are dropped.
func (d *Diagram) Add(els *api.Elements) {
	if els == nil {
		return
	}
	for _, n := range els.Nodes {
		if _, ok := d.nodes[n.Data.ID]; ok {
			continue
		}
		d.nodes[n.Data.ID] = Node{ID: n.Data.ID, Hidden: n.Data.Hide}
		d.nodeOrder = append(d.nodeOrder, n.Data.ID)
	}
	for _, e := range els.Edges {
		data := e.Data
		if _, ok := d.edges[data.ID]; ok {
			continue
		}
		if !d.Has(data.Source) || !d.Has(data.Target) {
			continue
		}
		d.edges[data.ID] = Edge{
			ID:     data.ID,
			Source: data.Source,
			Target: data.Target,
			Kind:   data.Kind,
			Hidden: data.Hide,
		}
		d.edgeOrder = append(d.edgeOrder, data.ID)
	}
}

func (d *Diagram) Has(id verse.ID) bool {
	_, ok := d.nodes[id]
	return ok
}

func (d *Diagram) Node(id verse.ID) (Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

func (d *Diagram) Nodes() []Node {
	out := make([]Node, 0, len(d.nodeOrder))
	for _, id := range d.nodeOrder {
		out = append(out, d.nodes[id])
	}
	return out
}

func (d *Diagram) Edges() []Edge {
	out := make([]Edge, 0, len(d.edgeOrder))
	for _, id := range d.edgeOrder {
		out = append(out, d.edges[id])
	}
	return out
}

// NodeIDs returns the node ids in sorted order.
func (d *Diagram) NodeIDs() []verse.ID {
	ids := append([]verse.ID(nil), d.nodeOrder...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (d *Diagram) Len() (nodes, edges int) {
	return len(d.nodeOrder), len(d.edgeOrder)
}
