// Package diagram defines the snapshot types the layout engine works on.
//
// # Overview
//
// A [Diagram] is a flat list of [Node] boxes, [Edge] connections and optional
// [Group] memberships supplied by the canvas for a single layout or routing
// call. Nodes carry only identity and geometry: the caller's labels, kinds
// and statuses never enter the engine.
//
// Positions are top-left corners in screen coordinates (y grows downward).
// Unmeasured nodes fall back to a 180×160 box via [Node.Dimensions].
//
// # Reference Integrity
//
// The engine never rejects dangling references. An edge or group member that
// names a node absent from the snapshot is silently ignored. [Index] performs
// that filtering once per call and answers group membership questions:
//
//	idx := diagram.NewIndex(d.Nodes, d.Groups)
//	edges := idx.ValidEdges(d.Edges)
//	for _, g := range idx.ActiveGroups() {
//	    // g.MemberIDs holds only present members; len >= 2
//	}
//
// A group is active only when at least two of its members are present.
// Inactive groups are ignored entirely.
//
// # Handles
//
// [Handle] names one of eight anchors on a node's boundary: four side
// midpoints and four corners. [HandlePoint] computes an anchor from the
// node's position and size at call time; handles are never stored.
//
// # Grid Seeding
//
// [SeedGrid] spreads nodes that sit at the origin (never placed) over a
// four-column grid, so post-processing has something sensible to work with
// when the solver is skipped.
package diagram
