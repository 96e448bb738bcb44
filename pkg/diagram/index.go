package diagram

// MinActiveMembers is the number of present members a group needs before
// layout treats it as a group at all.
const MinActiveMembers = 2

// Index is a per-call lookup structure over a snapshot. It is built fresh on
// every invocation; nothing in it outlives the call.
//
// Dangling references (edges or group members naming absent nodes) are
// filtered here so the stages never have to care.
type Index struct {
	nodes  map[string]int
	order  []string
	active []Group
	group  map[string]string
}

// NewIndex indexes nodes and resolves which groups are active against them.
// When a node ID appears twice, the first occurrence wins.
func NewIndex(nodes []Node, groups []Group) *Index {
	idx := &Index{
		nodes: make(map[string]int, len(nodes)),
		order: make([]string, 0, len(nodes)),
		group: make(map[string]string),
	}
	for i, n := range nodes {
		if _, dup := idx.nodes[n.ID]; dup {
			continue
		}
		idx.nodes[n.ID] = i
		idx.order = append(idx.order, n.ID)
	}

	for _, g := range groups {
		members := make([]string, 0, len(g.MemberIDs))
		seen := make(map[string]bool, len(g.MemberIDs))
		for _, id := range g.MemberIDs {
			if !idx.Has(id) || seen[id] {
				continue
			}
			// A node belongs to at most one active group: the first one.
			if _, taken := idx.group[id]; taken {
				continue
			}
			seen[id] = true
			members = append(members, id)
		}
		if len(members) < MinActiveMembers {
			continue
		}
		for _, id := range members {
			idx.group[id] = g.ID
		}
		idx.active = append(idx.active, Group{ID: g.ID, MemberIDs: members})
	}
	return idx
}

// Has reports whether a node with the given ID is present.
func (idx *Index) Has(id string) bool {
	_, ok := idx.nodes[id]
	return ok
}

// Position returns the slice index of the node with the given ID.
func (idx *Index) Position(id string) (int, bool) {
	i, ok := idx.nodes[id]
	return i, ok
}

// IDs returns present node IDs in input order, without duplicates.
func (idx *Index) IDs() []string { return idx.order }

// ActiveGroups returns groups with at least MinActiveMembers present members,
// each restricted to its present members, in input order.
func (idx *Index) ActiveGroups() []Group { return idx.active }

// GroupOf returns the active group containing id, or "" when id is ungrouped.
func (idx *Index) GroupOf(id string) string { return idx.group[id] }

// Grouped reports whether id is a member of an active group.
func (idx *Index) Grouped(id string) bool {
	_, ok := idx.group[id]
	return ok
}

// ValidEdges returns the edges whose endpoints are both present, in input order.
func (idx *Index) ValidEdges(edges []Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if idx.Has(e.Source) && idx.Has(e.Target) {
			out = append(out, e)
		}
	}
	return out
}
