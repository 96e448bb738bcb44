// Package routing chooses connection anchors for edges.
//
// Every edge gets one of the eight handles on its source box and one on its
// target box. The pair with the lowest cost wins, where cost is the squared
// distance between the two anchors plus a penalty for each earlier edge
// already using the same handle on the same node, plus a penalty for every
// corner handle. Corners then only win when the geometry is clearly diagonal,
// and busy handles shed later edges to their neighbours.
//
// Routing is independent of layout: it reads positions and sizes as they
// are and never changes them.
package routing

import (
	"github.com/aklos/scryer-sub000/pkg/diagram"
	"github.com/aklos/scryer-sub000/pkg/geometry"
)

// Default penalties, in squared canvas units.
const (
	DefaultCongestionPenalty = 40.0 * 40.0
	DefaultCornerPenalty     = 80.0 * 80.0
)

// Options tunes the cost function. Zero fields select the defaults.
type Options struct {
	// CongestionPenalty is charged once per earlier use of a handle on the
	// same node.
	CongestionPenalty float64
	// CornerPenalty is charged for each corner handle in a pair.
	CornerPenalty float64
}

// DefaultOptions returns the standard penalties.
func DefaultOptions() Options {
	return Options{
		CongestionPenalty: DefaultCongestionPenalty,
		CornerPenalty:     DefaultCornerPenalty,
	}
}

func (o Options) withDefaults() Options {
	if o.CongestionPenalty <= 0 {
		o.CongestionPenalty = DefaultCongestionPenalty
	}
	if o.CornerPenalty <= 0 {
		o.CornerPenalty = DefaultCornerPenalty
	}
	return o
}

// Usage counts how many routed edges attach to each handle of each node.
type Usage map[string]*[len(diagram.Handles)]int

func (u Usage) count(node string, h int) int {
	if c := u[node]; c != nil {
		return c[h]
	}
	return 0
}

func (u Usage) add(node string, h int) {
	c := u[node]
	if c == nil {
		c = new([len(diagram.Handles)]int)
		u[node] = c
	}
	c[h]++
}

// Of returns the number of edges attached to handle h on node.
func (u Usage) Of(node string, h diagram.Handle) int {
	for i, k := range diagram.Handles {
		if k == h {
			return u.count(node, i)
		}
	}
	return 0
}

// Router assigns handles edge by edge, remembering handle usage between
// calls. Use [Route] for the common one-shot case.
type Router struct {
	opts  Options
	nodes map[string]diagram.Node
	usage Usage
}

// NewRouter returns a router over nodes. When two nodes share an ID the
// first one wins.
func NewRouter(nodes []diagram.Node, opts Options) *Router {
	r := &Router{
		opts:  opts.withDefaults(),
		nodes: make(map[string]diagram.Node, len(nodes)),
		usage: make(Usage),
	}
	for _, n := range nodes {
		if _, dup := r.nodes[n.ID]; !dup {
			r.nodes[n.ID] = n
		}
	}
	return r
}

// Usage returns the handle usage recorded so far.
func (r *Router) Usage() Usage { return r.usage }

// Assign picks the handle pair for e and records it. It reports false, and
// records nothing, when either endpoint is missing.
func (r *Router) Assign(e diagram.Edge) (diagram.HandlePair, bool) {
	src, ok := r.nodes[e.Source]
	if !ok {
		return diagram.HandlePair{}, false
	}
	dst, ok := r.nodes[e.Target]
	if !ok {
		return diagram.HandlePair{}, false
	}

	var srcPts, dstPts [len(diagram.Handles)]geometry.Point
	for i, h := range diagram.Handles {
		x, y := diagram.HandlePoint(src, h)
		srcPts[i] = geometry.Point{X: x, Y: y}
		x, y = diagram.HandlePoint(dst, h)
		dstPts[i] = geometry.Point{X: x, Y: y}
	}

	bestS, bestT := -1, -1
	var bestCost float64
	for i, hs := range diagram.Handles {
		for j, ht := range diagram.Handles {
			if e.IsSelfLoop() && i == j {
				continue
			}
			cost := geometry.Dist2(srcPts[i], dstPts[j])
			cost += r.opts.CongestionPenalty * float64(r.usage.count(e.Source, i)+r.usage.count(e.Target, j))
			if hs.IsCorner() {
				cost += r.opts.CornerPenalty
			}
			if ht.IsCorner() {
				cost += r.opts.CornerPenalty
			}
			if bestS < 0 || cost < bestCost {
				bestS, bestT, bestCost = i, j, cost
			}
		}
	}

	r.usage.add(e.Source, bestS)
	r.usage.add(e.Target, bestT)
	return diagram.HandlePair{
		SourceHandle: diagram.Handles[bestS],
		TargetHandle: diagram.Handles[bestT],
	}, true
}

// Route assigns a handle pair to every edge whose endpoints are both
// present, processing edges in input order. Dangling edges get no entry.
func Route(nodes []diagram.Node, edges []diagram.Edge, opts Options) map[string]diagram.HandlePair {
	r := NewRouter(nodes, opts)
	out := make(map[string]diagram.HandlePair, len(edges))
	for _, e := range edges {
		if pair, ok := r.Assign(e); ok {
			out[e.ID] = pair
		}
	}
	return out
}
