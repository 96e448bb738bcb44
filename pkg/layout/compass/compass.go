// Package compass spreads the direct neighbours of hub nodes onto the eight
// compass directions around each hub.
//
// Hubs are nodes with at least two distinct neighbours. They are visited in
// descending degree order, and every node is snapped at most once, so a
// busy hub claims its neighbourhood before a quieter one can. Members of
// active groups are never moved and grouped hubs are left alone entirely.
package compass

import (
	"cmp"
	"slices"

	"github.com/aklos/scryer-sub000/pkg/diagram"
	"github.com/aklos/scryer-sub000/pkg/geometry"
)

// Default placement distances, in canvas units between box centres.
const (
	DefaultBaseDistance = 200.0
	DefaultPerNeighbor  = 40.0
)

// Options tunes the radial placement.
type Options struct {
	// BaseDistance is the hub-to-neighbour distance before any neighbours
	// are counted.
	BaseDistance float64
	// PerNeighbor is added to the distance once per free neighbour.
	PerNeighbor float64
}

// DefaultOptions returns the standard placement distances.
func DefaultOptions() Options {
	return Options{BaseDistance: DefaultBaseDistance, PerNeighbor: DefaultPerNeighbor}
}

func (o Options) withDefaults() Options {
	if o.BaseDistance <= 0 {
		o.BaseDistance = DefaultBaseDistance
	}
	if o.PerNeighbor < 0 {
		o.PerNeighbor = DefaultPerNeighbor
	}
	return o
}

// Report summarises one normalisation pass.
type Report struct {
	Hubs  int // hubs that were processed
	Moved int // neighbours that were snapped to a compass slot
}

type adjacency struct {
	order []string
	set   map[string]map[string]bool
	list  map[string][]string
}

func newAdjacency(idx *diagram.Index, edges []diagram.Edge) *adjacency {
	a := &adjacency{
		order: idx.IDs(),
		set:   make(map[string]map[string]bool),
		list:  make(map[string][]string),
	}
	for _, e := range idx.ValidEdges(edges) {
		if e.IsSelfLoop() {
			continue
		}
		a.link(e.Source, e.Target)
		a.link(e.Target, e.Source)
	}
	return a
}

func (a *adjacency) link(from, to string) {
	s := a.set[from]
	if s == nil {
		s = make(map[string]bool)
		a.set[from] = s
	}
	if s[to] {
		return
	}
	s[to] = true
	a.list[from] = append(a.list[from], to)
}

func (a *adjacency) degree(id string) int { return len(a.list[id]) }

// hubs returns nodes of degree >= 2, highest degree first, ties in input order.
func (a *adjacency) hubs() []string {
	var out []string
	for _, id := range a.order {
		if a.degree(id) >= 2 {
			out = append(out, id)
		}
	}
	slices.SortStableFunc(out, func(x, y string) int {
		return cmp.Compare(a.degree(y), a.degree(x))
	})
	return out
}

// Normalize returns a copy of nodes with hub neighbours snapped to compass
// slots. Nodes that are not free neighbours of a processed hub keep their
// positions exactly.
func Normalize(nodes []diagram.Node, edges []diagram.Edge, groups []diagram.Group, opts Options) ([]diagram.Node, Report) {
	opts = opts.withDefaults()
	out := diagram.CloneNodes(nodes)
	var rep Report
	if len(out) < 2 || len(edges) == 0 {
		return out, rep
	}

	idx := diagram.NewIndex(out, groups)
	adj := newAdjacency(idx, edges)

	node := func(id string) *diagram.Node {
		i, _ := idx.Position(id)
		return &out[i]
	}
	center := func(id string) geometry.Point {
		x, y := node(id).Center()
		return geometry.Point{X: x, Y: y}
	}

	placed := make(map[string]bool)
	for _, hub := range adj.hubs() {
		if placed[hub] || idx.Grouped(hub) {
			continue
		}
		origin := center(hub)

		var taken [geometry.CompassSlots]bool
		var free []string
		for _, n := range adj.list[hub] {
			switch {
			case placed[n]:
				taken[geometry.NearestSlot(geometry.Angle(origin, center(n)))] = true
			case !idx.Grouped(n):
				free = append(free, n)
			}
		}

		dist := opts.BaseDistance + opts.PerNeighbor*float64(len(free))

		angles := make(map[string]float64, len(free))
		for _, n := range free {
			angles[n] = geometry.Angle(origin, center(n))
		}
		slices.SortStableFunc(free, func(x, y string) int {
			return cmp.Compare(angles[x], angles[y])
		})

		for _, n := range free {
			theta := angles[n]
			if slot := geometry.NearestFreeSlot(theta, taken); slot >= 0 {
				taken[slot] = true
				theta = geometry.SlotAngle(slot)
			}
			p := geometry.Polar(origin, dist, theta)
			*node(n) = node(n).WithCenter(p.X, p.Y)
			placed[n] = true
			rep.Moved++
		}

		placed[hub] = true
		rep.Hubs++
	}
	return out, rep
}
