// Package crossing counts straight-line edge crossings and removes some of
// them by permuting the positions of small clusters of entangled nodes.
//
// Two edges cross when their centre-to-centre segments intersect strictly
// inside both segments; edges that share an endpoint never count. Nodes on
// crossing edges are linked into clusters, but only with nodes of the same
// active group (or with other ungrouped nodes), so a permutation can never
// scatter a group's members among outsiders. Each cluster of up to
// MaxCluster nodes is then searched exhaustively.
package crossing

import (
	"github.com/aklos/scryer-sub000/pkg/diagram"
	"github.com/aklos/scryer-sub000/pkg/geometry"
	"github.com/aklos/scryer-sub000/pkg/perm"
)

// DefaultMaxCluster is the largest cluster searched exhaustively (6! = 720
// arrangements).
const DefaultMaxCluster = 6

// Segment parameters outside (lo, hi) do not count as a crossing.
const (
	lo = 0.01
	hi = 0.99
)

// Options tunes the reducer.
type Options struct {
	// MaxCluster caps the cluster size searched. Larger clusters keep their
	// current arrangement. Zero or negative selects DefaultMaxCluster.
	MaxCluster int
}

// DefaultOptions returns the standard reducer options.
func DefaultOptions() Options {
	return Options{MaxCluster: DefaultMaxCluster}
}

// Report summarises one reduction pass.
type Report struct {
	Before   int // crossings on input
	After    int // crossings on output
	Clusters int // clusters searched
	Skipped  int // clusters larger than MaxCluster
}

// Pair is two edges whose segments cross.
type Pair struct {
	First, Second diagram.Edge
}

// workspace holds the segment endpoints of every countable edge as slice
// indexes into the node list, plus the current centre of every node, so a
// candidate arrangement can be scored by rewriting a few centres.
type workspace struct {
	idx     *diagram.Index
	ids     []string
	edges   []diagram.Edge
	ends    [][2]int
	centers []geometry.Point
}

func newWorkspace(nodes []diagram.Node, edges []diagram.Edge, groups []diagram.Group) *workspace {
	ws := &workspace{
		idx:     diagram.NewIndex(nodes, groups),
		ids:     make([]string, len(nodes)),
		centers: make([]geometry.Point, len(nodes)),
	}
	for i, n := range nodes {
		ws.ids[i] = n.ID
		x, y := n.Center()
		ws.centers[i] = geometry.Point{X: x, Y: y}
	}
	for _, e := range ws.idx.ValidEdges(edges) {
		if e.IsSelfLoop() {
			continue
		}
		s, _ := ws.idx.Position(e.Source)
		t, _ := ws.idx.Position(e.Target)
		ws.edges = append(ws.edges, e)
		ws.ends = append(ws.ends, [2]int{s, t})
	}
	return ws
}

func (ws *workspace) crosses(i, j int) bool {
	a, b := ws.ends[i], ws.ends[j]
	if a[0] == b[0] || a[0] == b[1] || a[1] == b[0] || a[1] == b[1] {
		return false
	}
	s := geometry.Segment{A: ws.centers[a[0]], B: ws.centers[a[1]]}
	o := geometry.Segment{A: ws.centers[b[0]], B: ws.centers[b[1]]}
	return s.Intersect(o, lo, hi)
}

func (ws *workspace) count() int {
	n := 0
	for i := range ws.ends {
		for j := i + 1; j < len(ws.ends); j++ {
			if ws.crosses(i, j) {
				n++
			}
		}
	}
	return n
}

func (ws *workspace) pairs() []Pair {
	var out []Pair
	for i := range ws.ends {
		for j := i + 1; j < len(ws.ends); j++ {
			if ws.crosses(i, j) {
				out = append(out, Pair{First: ws.edges[i], Second: ws.edges[j]})
			}
		}
	}
	return out
}

// Count returns the number of crossing edge pairs. Dangling edges and
// self-loops are ignored.
func Count(nodes []diagram.Node, edges []diagram.Edge) int {
	return newWorkspace(nodes, edges, nil).count()
}

// Pairs returns every crossing edge pair, in edge input order.
func Pairs(nodes []diagram.Node, edges []diagram.Edge) []Pair {
	return newWorkspace(nodes, edges, nil).pairs()
}

// Reduce returns nodes rearranged so that the crossing count never goes up.
//
// When there are no crossings the input slice itself is returned. Otherwise
// the result is a copy in which only positions within crossing clusters may
// have been exchanged; node count, IDs and sizes are preserved. Clusters are
// resolved one after another, each on top of the positions chosen for
// earlier clusters.
func Reduce(nodes []diagram.Node, edges []diagram.Edge, groups []diagram.Group, opts Options) ([]diagram.Node, Report) {
	maxCluster := opts.MaxCluster
	if maxCluster <= 0 {
		maxCluster = DefaultMaxCluster
	}

	ws := newWorkspace(nodes, edges, groups)
	var rep Report
	rep.Before = ws.count()
	if rep.Before == 0 {
		return nodes, rep
	}

	best := rep.Before
	var out []diagram.Node
	for _, cluster := range ws.clusters() {
		if len(cluster) < 2 {
			continue
		}
		if len(cluster) > maxCluster {
			rep.Skipped++
			continue
		}
		rep.Clusters++

		arrangement, n := ws.search(cluster, best)
		if arrangement == nil {
			continue
		}
		best = n
		if out == nil {
			out = diagram.CloneNodes(nodes)
		}
		for _, i := range cluster {
			c := ws.centers[i]
			out[i] = out[i].WithCenter(c.X, c.Y)
		}
	}

	rep.After = best
	if out == nil {
		return nodes, rep
	}
	return out, rep
}

// search tries every arrangement of cluster over the cluster's current
// centres and returns the best one, or nil when none beats current
// strictly. The workspace is left in the winning arrangement.
func (ws *workspace) search(cluster []int, current int) ([]int, int) {
	slots := make([]geometry.Point, len(cluster))
	for k, i := range cluster {
		slots[k] = ws.centers[i]
	}
	place := func(p []int) {
		for k, i := range cluster {
			ws.centers[i] = slots[p[k]]
		}
	}

	var best []int
	bestCount := current
	perm.Each(len(cluster), func(p []int) bool {
		place(p)
		if n := ws.count(); n < bestCount {
			best, bestCount = append(best[:0], p...), n
		}
		return bestCount > 0
	})

	if best == nil {
		place(perm.Seq(len(cluster)))
		return nil, current
	}
	place(best)
	return best, bestCount
}

// clusters links the endpoints of crossing edges and returns the connected
// components, each as node slice indexes in discovery order. Two nodes are
// only linked when they share an active group or are both ungrouped.
func (ws *workspace) clusters() [][]int {
	links := make(map[int][]int)
	linked := make(map[[2]int]bool)
	var order []int
	touched := make(map[int]bool)

	link := func(a, b int) {
		if a == b || linked[[2]int{a, b}] {
			return
		}
		if ws.groupOf(a) != ws.groupOf(b) {
			return
		}
		linked[[2]int{a, b}] = true
		linked[[2]int{b, a}] = true
		links[a] = append(links[a], b)
		links[b] = append(links[b], a)
	}

	for i := range ws.ends {
		for j := i + 1; j < len(ws.ends); j++ {
			if !ws.crosses(i, j) {
				continue
			}
			ids := [4]int{ws.ends[i][0], ws.ends[i][1], ws.ends[j][0], ws.ends[j][1]}
			for _, id := range ids {
				if !touched[id] {
					touched[id] = true
					order = append(order, id)
				}
			}
			for x := 0; x < len(ids); x++ {
				for y := x + 1; y < len(ids); y++ {
					link(ids[x], ids[y])
				}
			}
		}
	}

	visited := make(map[int]bool, len(order))
	var out [][]int
	for _, start := range order {
		if visited[start] {
			continue
		}
		visited[start] = true
		component := []int{start}
		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range links[cur] {
				if visited[next] {
					continue
				}
				visited[next] = true
				component = append(component, next)
				queue = append(queue, next)
			}
		}
		out = append(out, component)
	}
	return out
}

func (ws *workspace) groupOf(i int) string {
	return ws.idx.GroupOf(ws.ids[i])
}
