package graph

import (
	"sort"

	"xref-tui/internal/api"
	"xref-tui/internal/verse"
)

// Group is the position of a node relative to the focus verse.
type Group int

const (
	GroupIncoming Group = iota
	GroupOutgoing
	GroupMutual
	GroupSuggested
	GroupOther
)

var groupTitles = map[Group]string{
	GroupIncoming:  "Referenced by",
	GroupOutgoing:  "References",
	GroupMutual:    "Mutual",
	GroupSuggested: "Suggested",
	GroupOther:     "Expanded",
}

func (g Group) String() string { return groupTitles[g] }

// Placed is a node as laid out: its group, and for expanded nodes the
// neighbour that brought it in.
type Placed struct {
	Node
	Group  Group
	Hidden bool
	Via    verse.ID
}

type Column struct {
	Group Group
	Nodes []Placed
}

// Layout is the result of a layout pass: the focus node and the remaining
// nodes in columns. Order is the keyboard traversal order, focus first.
type Layout struct {
	Focus   *Placed
	Columns []Column
	Order   []verse.ID
}

// Index returns the position of id in Order, or -1.
func (l Layout) Index(id verse.ID) int {
	for i, candidate := range l.Order {
		if candidate == id {
			return i
		}
	}
	return -1
}

// ColumnStart returns the Order index of the first node in column c.
func (l Layout) ColumnStart(c int) int {
	i := 0
	if l.Focus != nil {
		i = 1
	}
	for j := 0; j < c && j < len(l.Columns); j++ {
		i += len(l.Columns[j].Nodes)
	}
	return i
}

// ColumnOf returns the column holding Order[i], or -1 for the focus node.
func (l Layout) ColumnOf(i int) int {
	if l.Focus != nil {
		if i == 0 {
			return -1
		}
		i--
	}
	for c, col := range l.Columns {
		if i < len(col.Nodes) {
			return c
		}
		i -= len(col.Nodes)
	}
	return -1
}

var kindGroup = map[api.EdgeKind]Group{
	api.KindIncoming:  GroupIncoming,
	api.KindOutgoing:  GroupOutgoing,
	api.KindBoth:      GroupMutual,
	api.KindSuggested: GroupSuggested,
}

// Layout places every node relative to focus. A node joined to the focus by
// several edges takes the strongest group (mutual, then a direct reference,
// then a suggestion). Within a column visible nodes come first, each part
// sorted by id.
func (d *Diagram) Layout(focus verse.ID) Layout {
	groups := make(map[verse.ID]Group)
	hiddenEdge := make(map[verse.ID]bool)
	via := make(map[verse.ID]verse.ID)

	for _, e := range d.Edges() {
		var other verse.ID
		switch focus {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			if _, ok := via[e.Target]; !ok {
				via[e.Target] = e.Source
			}
			if _, ok := via[e.Source]; !ok {
				via[e.Source] = e.Target
			}
			continue
		}
		g, ok := kindGroup[e.Kind]
		if !ok {
			g = GroupOther
		}
		if cur, seen := groups[other]; !seen || rank(g) > rank(cur) {
			groups[other] = g
			hiddenEdge[other] = e.Hidden
		}
	}

	var l Layout
	buckets := make(map[Group][]Placed)
	for _, n := range d.Nodes() {
		if n.ID == focus {
			l.Focus = &Placed{Node: n, Group: GroupOther, Hidden: n.Hidden}
			continue
		}
		g, ok := groups[n.ID]
		if !ok {
			g = GroupOther
		}
		p := Placed{Node: n, Group: g, Hidden: n.Hidden || hiddenEdge[n.ID]}
		if g == GroupOther {
			p.Via = via[n.ID]
		}
		buckets[g] = append(buckets[g], p)
	}

	if l.Focus != nil {
		l.Order = append(l.Order, focus)
	}
	for g := GroupIncoming; g <= GroupOther; g++ {
		nodes := buckets[g]
		if len(nodes) == 0 {
			continue
		}
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].Hidden != nodes[j].Hidden {
				return !nodes[i].Hidden
			}
			return nodes[i].ID < nodes[j].ID
		})
		l.Columns = append(l.Columns, Column{Group: g, Nodes: nodes})
		for _, p := range nodes {
			l.Order = append(l.Order, p.ID)
		}
	}
	return l
}

func rank(g Group) int {
	switch g {
	case GroupMutual:
		return 3
	case GroupIncoming, GroupOutgoing:
		return 2
	case GroupSuggested:
		return 1
	}
	return 0
}
