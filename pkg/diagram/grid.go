package diagram

// Grid parameters for nodes that have never been placed.
const (
	GridColumns = 4
	GridStepX   = 250.0
	GridStepY   = 220.0
	GridMargin  = 100.0
)

// SeedGrid returns a copy of nodes in which every node sitting exactly at the
// origin is moved onto a 4-column grid. Nodes with any other position keep it.
// The i-th unplaced node lands at column i%4, row i/4.
func SeedGrid(nodes []Node) []Node {
	out := CloneNodes(nodes)
	slot := 0
	for i := range out {
		if !out[i].Position.IsOrigin() {
			continue
		}
		out[i].Position = Position{
			X: float64(slot%GridColumns)*GridStepX + GridMargin,
			Y: float64(slot/GridColumns)*GridStepY + GridMargin,
		}
		slot++
	}
	return out
}
