// Package compound builds the two-level graph handed to the layout solver.
//
// Active groups become synthetic parent items that wrap their members as
// children. Edges inside a group stay with that group; every other edge is
// lifted so its endpoints name top-level items, then deduplicated, because
// the solver only needs to know that two items are connected, not how often.
package compound

import "github.com/aklos/scryer-sub000/pkg/diagram"

// GroupIDPrefix is prepended to a group's parent ID when the group ID would
// otherwise collide with a node ID.
const GroupIDPrefix = "group:"

// Kind discriminates the two shapes an Item can take.
type Kind int

const (
	// KindNode is a plain, ungrouped node.
	KindNode Kind = iota
	// KindGroup is a synthetic parent wrapping an active group's members.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindGroup:
		return "group"
	}
	return "unknown"
}

// Item is one top-level entry of the compound graph.
type Item struct {
	Kind Kind
	// ID is the node ID for KindNode and the parent ID for KindGroup.
	ID string

	// Node is set for KindNode.
	Node diagram.Node

	// GroupID, Children and Edges are set for KindGroup. Edges holds the
	// intra-group edges between Children, in input order.
	GroupID  string
	Children []diagram.Node
	Edges    []diagram.Edge
}

// IsGroup reports whether the item is a synthetic group parent.
func (it Item) IsGroup() bool { return it.Kind == KindGroup }

// Edge is a lifted top-level edge between two item IDs.
type Edge struct {
	Source string
	Target string
}

// Graph is the compound graph for one layout call.
type Graph struct {
	Items []Item
	Edges []Edge

	parent map[string]string
	items  map[string]int
}

// Build partitions nodes into plain items and group parents.
//
// Only groups with at least [diagram.MinActiveMembers] present members take
// part. Edges with a missing endpoint are dropped, and lifted edges that
// collapse onto a single item are dropped as well.
func Build(nodes []diagram.Node, edges []diagram.Edge, groups []diagram.Group) *Graph {
	idx := diagram.NewIndex(nodes, groups)

	parentIDs := make(map[string]string, len(idx.ActiveGroups()))
	used := make(map[string]bool, len(idx.IDs()))
	for _, id := range idx.IDs() {
		used[id] = true
	}
	for _, g := range idx.ActiveGroups() {
		pid := g.ID
		for used[pid] {
			pid = GroupIDPrefix + pid
		}
		used[pid] = true
		parentIDs[g.ID] = pid
	}

	g := &Graph{
		parent: make(map[string]string),
		items:  make(map[string]int),
	}

	// Items appear in the order their first node appears.
	for _, id := range idx.IDs() {
		i, _ := idx.Position(id)
		n := nodes[i]

		gid := idx.GroupOf(id)
		if gid == "" {
			g.items[id] = len(g.Items)
			g.Items = append(g.Items, Item{Kind: KindNode, ID: id, Node: n})
			continue
		}

		pid := parentIDs[gid]
		g.parent[id] = pid
		if at, ok := g.items[pid]; ok {
			g.Items[at].Children = append(g.Items[at].Children, n)
			continue
		}
		g.items[pid] = len(g.Items)
		g.Items = append(g.Items, Item{
			Kind:     KindGroup,
			ID:       pid,
			GroupID:  gid,
			Children: []diagram.Node{n},
		})
	}

	seen := make(map[Edge]bool)
	for _, e := range idx.ValidEdges(edges) {
		sp, tp := g.parent[e.Source], g.parent[e.Target]
		if sp != "" && sp == tp {
			at := g.items[sp]
			g.Items[at].Edges = append(g.Items[at].Edges, e)
			continue
		}

		lifted := Edge{Source: g.Lift(e.Source), Target: g.Lift(e.Target)}
		if lifted.Source == lifted.Target || seen[lifted] {
			continue
		}
		seen[lifted] = true
		g.Edges = append(g.Edges, lifted)
	}
	return g
}

// ParentOf returns the parent ID of the group containing nodeID, or "" when
// the node is ungrouped or absent.
func (g *Graph) ParentOf(nodeID string) string { return g.parent[nodeID] }

// Lift returns the top-level item ID that stands in for nodeID.
func (g *Graph) Lift(nodeID string) string {
	if p := g.parent[nodeID]; p != "" {
		return p
	}
	return nodeID
}

// Item returns the top-level item with the given ID.
func (g *Graph) Item(id string) (Item, bool) {
	i, ok := g.items[id]
	if !ok {
		return Item{}, false
	}
	return g.Items[i], true
}

// HasGroups reports whether any group parent exists.
func (g *Graph) HasGroups() bool { return len(g.parent) > 0 }

// Groups returns the group parent items in item order.
func (g *Graph) Groups() []Item {
	var out []Item
	for _, it := range g.Items {
		if it.IsGroup() {
			out = append(out, it)
		}
	}
	return out
}

// NodeCount returns the number of diagram nodes across all items.
func (g *Graph) NodeCount() int {
	n := 0
	for _, it := range g.Items {
		if it.IsGroup() {
			n += len(it.Children)
		} else {
			n++
		}
	}
	return n
}

// Footprint estimates how much room a group parent needs: the sum of each
// child's larger dimension. It is zero for plain items.
func (it Item) Footprint() float64 {
	var sum float64
	for _, c := range it.Children {
		sum += c.LargerDimension()
	}
	return sum
}

// MaxFootprint returns the largest [Item.Footprint] over all group parents.
func (g *Graph) MaxFootprint() float64 {
	var best float64
	for _, it := range g.Items {
		if f := it.Footprint(); f > best {
			best = f
		}
	}
	return best
}
