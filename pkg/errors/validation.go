package errors

import (
	"math"
	"strings"
	"unicode"

	"github.com/aklos/scryer-sub000/pkg/diagram"
)

// maxIDLength bounds identifiers accepted at the CLI and HTTP boundaries.
const maxIDLength = 256

// ValidateID validates a node, edge or group identifier.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No surrounding whitespace
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidModel, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidModel, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidModel, "%s id %q contains control characters", kind, id)
		}
	}
	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidModel, "%s id %q has surrounding whitespace", kind, id)
	}
	return nil
}

// ValidateDiagram checks a snapshot received from outside the process.
//
// Only structural problems that would make the result ambiguous are
// rejected: bad or duplicate node IDs, non-finite coordinates and negative
// sizes. Dangling edge and group references are not errors; the engine skips
// them wherever they appear.
func ValidateDiagram(d diagram.Diagram) error {
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if err := ValidateID("node", n.ID); err != nil {
			return err
		}
		if seen[n.ID] {
			return New(ErrCodeInvalidModel, "duplicate node id: %q", n.ID)
		}
		seen[n.ID] = true

		if !n.Position.IsFinite() {
			return New(ErrCodeInvalidModel, "node %q has a non-finite position", n.ID)
		}
		if n.Size != nil {
			if n.Size.Width < 0 || n.Size.Height < 0 {
				return New(ErrCodeInvalidModel, "node %q has a negative size", n.ID)
			}
			if math.IsNaN(n.Size.Width) || math.IsNaN(n.Size.Height) {
				return New(ErrCodeInvalidModel, "node %q has a NaN size", n.ID)
			}
		}
	}

	edgeIDs := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if err := ValidateID("edge", e.ID); err != nil {
			return err
		}
		if edgeIDs[e.ID] {
			return New(ErrCodeInvalidModel, "duplicate edge id: %q", e.ID)
		}
		edgeIDs[e.ID] = true
	}

	for _, g := range d.Groups {
		if err := ValidateID("group", g.ID); err != nil {
			return err
		}
	}
	return nil
}
