package graph

import (
	"fmt"
	"sort"
)

// Graph is the ordered set of top-level nodes of a generic payoff.
// Orders are contiguous from 0 within each column.
type Graph struct {
	Nodes []Node `json:"nodes"`
}

// Default is the skeleton every generic payoff starts from: observe on every
// date, compare the worst performer against 100%, autocall when it holds and
// continue otherwise. Its nodes are marked default and cannot be removed.
func Default() Graph {
	var g Graph
	mustAdd := func(typ NodeType, column Column, value Value) {
		n, err := NewNode(typ, column, value)
		if err != nil {
			panic(err)
		}
		n.Default = true
		g.append(n)
	}
	mustAdd(Timing, ColumnTiming, Text("every_observation"))
	mustAdd(Basket, ColumnCondition, Text("worst_of"))
	mustAdd(Comparison, ColumnCondition, Text(">="))
	mustAdd(Barrier, ColumnCondition, Num(100))
	mustAdd(Action, ColumnAction, Text("autocall"))
	mustAdd(Action, ColumnContinuation, Text("continue"))
	return g
}

// Column returns the nodes of c in order.
func (g Graph) Column(c Column) []Node {
	out := make([]Node, 0)
	for _, n := range g.Nodes {
		if n.Column == c {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Find returns the node with id, searching branches too.
func (g Graph) Find(id string) (Node, bool) {
	if n := find(g.Nodes, id); n != nil {
		return *n, true
	}
	return Node{}, false
}

// Add inserts a validated node into its column at position. A negative or
// out-of-range position appends.
func (g *Graph) Add(n Node, position int) (Node, error) {
	if err := n.validate(); err != nil {
		return Node{}, err
	}
	column := g.Column(n.Column)
	if position < 0 || position > len(column) {
		position = len(column)
	}
	for i := range g.Nodes {
		if g.Nodes[i].Column == n.Column && g.Nodes[i].Order >= position {
			g.Nodes[i].Order++
		}
	}
	n.Order = position
	g.Nodes = append(g.Nodes, n)
	return n, nil
}

// AddToBranch appends n to the branch labelled label of condition parentID,
// creating the branch when it does not exist yet.
func (g *Graph) AddToBranch(parentID, label string, n Node) (Node, error) {
	parent := find(g.Nodes, parentID)
	if parent == nil {
		return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, parentID)
	}
	if parent.Type != Condition {
		return Node{}, fmt.Errorf("%w: %s is %s", ErrNotCondition, parentID, parent.Type)
	}
	if err := n.validate(); err != nil {
		return Node{}, err
	}

	for i := range parent.Branches {
		if parent.Branches[i].Label == label {
			n.Order = len(parent.Branches[i].Nodes)
			parent.Branches[i].Nodes = append(parent.Branches[i].Nodes, n)
			return n, nil
		}
	}
	n.Order = 0
	parent.Branches = append(parent.Branches, Branch{Label: label, Nodes: []Node{n}})
	return n, nil
}

// Remove deletes a node, top-level or inside a branch.
func (g *Graph) Remove(id string) error {
	n := find(g.Nodes, id)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if n.Default {
		return fmt.Errorf("%w: %s", ErrDefaultNode, id)
	}
	if !remove(&g.Nodes, id, true) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return nil
}

// Move places a top-level node at position within its column, shifting the others.
func (g *Graph) Move(id string, position int) error {
	var moved *Node
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			moved = &g.Nodes[i]
		}
	}
	if moved == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	column := g.Column(moved.Column)
	if position < 0 {
		position = 0
	}
	if position >= len(column) {
		position = len(column) - 1
	}

	ids := make([]string, 0, len(column))
	for _, n := range column {
		if n.ID != id {
			ids = append(ids, n.ID)
		}
	}
	ids = append(ids[:position], append([]string{id}, ids[position:]...)...)

	orders := make(map[string]int, len(ids))
	for i, nodeID := range ids {
		orders[nodeID] = i
	}
	for i := range g.Nodes {
		if order, ok := orders[g.Nodes[i].ID]; ok {
			g.Nodes[i].Order = order
		}
	}
	return nil
}

// Validate checks every node and that each column is ordered 0..n-1 without gaps.
func (g Graph) Validate() error {
	seen := make(map[string]bool)
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidNode, n.ID)
		}
		seen[n.ID] = true
		if err := n.validate(); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, c := range Columns {
		for i, n := range g.Column(c) {
			if n.Order != i {
				return fmt.Errorf("%w: %s column order broken at %s", ErrInvalidNode, c, n.ID)
			}
		}
	}
	return nil
}

// Empty reports whether the graph has no nodes.
func (g Graph) Empty() bool {
	return len(g.Nodes) == 0
}

// Clone returns a deep copy.
func (g Graph) Clone() Graph {
	return Graph{Nodes: cloneNodes(g.Nodes)}
}

func (g *Graph) append(n Node) {
	n.Order = len(g.Column(n.Column))
	g.Nodes = append(g.Nodes, n)
}

func find(nodes []Node, id string) *Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
		for b := range nodes[i].Branches {
			if n := find(nodes[i].Branches[b].Nodes, id); n != nil {
				return n
			}
		}
	}
	return nil
}

// remove deletes id from nodes or any nested branch and renumbers the
// affected sibling list. Top-level orders are per column.
func remove(nodes *[]Node, id string, topLevel bool) bool {
	list := *nodes
	for i := range list {
		if list[i].ID != id {
			continue
		}
		column, order := list[i].Column, list[i].Order
		*nodes = append(list[:i], list[i+1:]...)
		for j := range *nodes {
			n := &(*nodes)[j]
			if topLevel && n.Column != column {
				continue
			}
			if n.Order > order {
				n.Order--
			}
		}
		return true
	}
	for i := range list {
		for b := range list[i].Branches {
			if remove(&list[i].Branches[b].Nodes, id, false) {
				return true
			}
		}
	}
	return false
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.Value.Number != nil {
			v := *n.Value.Number
			out[i].Value.Number = &v
		}
		if n.Branches != nil {
			out[i].Branches = make([]Branch, len(n.Branches))
			for b, branch := range n.Branches {
				out[i].Branches[b] = Branch{Label: branch.Label, Nodes: cloneNodes(branch.Nodes)}
			}
		}
	}
	return out
}
