package diagram

import (
	"math"
	"slices"
)

// Default box dimensions used for nodes the canvas has not measured yet.
const (
	DefaultWidth  = 180.0
	DefaultHeight = 160.0
)

// Position is the top-left corner of a node's bounding box.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// IsOrigin reports whether the position is exactly (0,0), which the canvas
// uses to mean "never placed".
func (p Position) IsOrigin() bool { return p.X == 0 && p.Y == 0 }

// Size is a node's measured width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a box on the canvas. Labels, kinds and any other domain metadata
// stay in the caller's model; the engine only sees identity and geometry.
type Node struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Size     *Size    `json:"size,omitempty"`
}

// Dimensions returns the node's measured size, or the default box when the
// node is unmeasured or carries a non-positive size.
func (n Node) Dimensions() (w, h float64) {
	w, h = DefaultWidth, DefaultHeight
	if n.Size == nil {
		return w, h
	}
	if n.Size.Width > 0 && !math.IsInf(n.Size.Width, 0) {
		w = n.Size.Width
	}
	if n.Size.Height > 0 && !math.IsInf(n.Size.Height, 0) {
		h = n.Size.Height
	}
	return w, h
}

// Center returns the centre of the node's bounding box.
func (n Node) Center() (x, y float64) {
	w, h := n.Dimensions()
	return n.Position.X + w/2, n.Position.Y + h/2
}

// LargerDimension returns max(width, height).
func (n Node) LargerDimension() float64 {
	w, h := n.Dimensions()
	return math.Max(w, h)
}

// WithCenter returns a copy of n whose bounding box is centred on (cx, cy).
func (n Node) WithCenter(cx, cy float64) Node {
	w, h := n.Dimensions()
	n.Position = Position{X: cx - w/2, Y: cy - h/2}
	return n
}

// Edge is a connection between two nodes. Multiple edges between the same
// pair are allowed and tracked independently by ID.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// IsSelfLoop reports whether the edge starts and ends on the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Group is a visual grouping of nodes. Membership is an ordered list of node
// IDs; members that are not present in the current node set are ignored.
type Group struct {
	ID        string   `json:"id"`
	MemberIDs []string `json:"memberIds"`
}

// Diagram is a caller snapshot of everything the engine needs for one call.
type Diagram struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Groups []Group `json:"groups,omitempty"`
}

// CloneNodes returns a copy of nodes that shares no Size pointers with the
// input, so stages can rewrite positions without touching caller data.
func CloneNodes(nodes []Node) []Node {
	out := slices.Clone(nodes)
	for i := range out {
		if out[i].Size != nil {
			s := *out[i].Size
			out[i].Size = &s
		}
	}
	return out
}

// PositionMap returns node positions keyed by node ID.
func PositionMap(nodes []Node) map[string]Position {
	m := make(map[string]Position, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n.Position
	}
	return m
}
