package diagram

// Handle names one of the eight connection anchors on a node's boundary.
type Handle string

// The four side midpoints and four corners of a node box.
const (
	HandleTop         Handle = "top"
	HandleBottom      Handle = "bottom"
	HandleLeft        Handle = "left"
	HandleRight       Handle = "right"
	HandleTopLeft     Handle = "top-left"
	HandleTopRight    Handle = "top-right"
	HandleBottomLeft  Handle = "bottom-left"
	HandleBottomRight Handle = "bottom-right"
)

// Handles lists every handle in enumeration order. Routing ties are broken
// by this order, so it must stay stable.
var Handles = [8]Handle{
	HandleTop,
	HandleBottom,
	HandleLeft,
	HandleRight,
	HandleTopLeft,
	HandleTopRight,
	HandleBottomLeft,
	HandleBottomRight,
}

// IsCorner reports whether h is one of the four corner anchors.
func (h Handle) IsCorner() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	}
	return false
}

// Valid reports whether h is one of the eight known handles.
func (h Handle) Valid() bool {
	for _, k := range Handles {
		if k == h {
			return true
		}
	}
	return false
}

// HandlePair is the routing decision for one edge.
type HandlePair struct {
	SourceHandle Handle `json:"sourceHandle"`
	TargetHandle Handle `json:"targetHandle"`
}

// HandlePoint returns the canvas coordinates of handle h on node n.
// It is computed from the node's current position and size on every call.
func HandlePoint(n Node, h Handle) (x, y float64) {
	w, hh := n.Dimensions()
	left, top := n.Position.X, n.Position.Y
	right, bottom := left+w, top+hh
	midX, midY := left+w/2, top+hh/2

	switch h {
	case HandleTop:
		return midX, top
	case HandleBottom:
		return midX, bottom
	case HandleLeft:
		return left, midY
	case HandleRight:
		return right, midY
	case HandleTopLeft:
		return left, top
	case HandleTopRight:
		return right, top
	case HandleBottomLeft:
		return left, bottom
	case HandleBottomRight:
		return right, bottom
	}
	return midX, midY
}
