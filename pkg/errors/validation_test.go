package errors

import (
	"math"
	"strings"
	"testing"

	"github.com/aklos/scryer-sub000/pkg/diagram"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "node-1", false},
		{"valid with colon", "group:web", false},
		{"valid unicode", "nœud", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " foo", true},
		{"trailing space", "foo ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("node", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidModel) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidModel)
			}
		})
	}
}

func TestValidateDiagram(t *testing.T) {
	valid := func() diagram.Diagram {
		return diagram.Diagram{
			Nodes: []diagram.Node{
				{ID: "a", Position: diagram.Position{X: 1, Y: 2}},
				{ID: "b", Size: &diagram.Size{Width: 10, Height: 10}},
			},
			Edges:  []diagram.Edge{{ID: "e1", Source: "a", Target: "b"}},
			Groups: []diagram.Group{{ID: "g", MemberIDs: []string{"a", "b"}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *diagram.Diagram)
		wantErr bool
	}{
		{"valid", func(d *diagram.Diagram) {}, false},
		{"dangling edge is fine", func(d *diagram.Diagram) {
			d.Edges = append(d.Edges, diagram.Edge{ID: "e2", Source: "a", Target: "ghost"})
		}, false},
		{"dangling member is fine", func(d *diagram.Diagram) {
			d.Groups[0].MemberIDs = append(d.Groups[0].MemberIDs, "ghost")
		}, false},
		{"empty diagram", func(d *diagram.Diagram) { *d = diagram.Diagram{} }, false},

		{"duplicate node", func(d *diagram.Diagram) {
			d.Nodes = append(d.Nodes, diagram.Node{ID: "a"})
		}, true},
		{"empty node id", func(d *diagram.Diagram) { d.Nodes[0].ID = "" }, true},
		{"NaN position", func(d *diagram.Diagram) { d.Nodes[0].Position.X = math.NaN() }, true},
		{"infinite position", func(d *diagram.Diagram) { d.Nodes[0].Position.Y = math.Inf(-1) }, true},
		{"negative size", func(d *diagram.Diagram) { d.Nodes[1].Size.Width = -1 }, true},
		{"NaN size", func(d *diagram.Diagram) { d.Nodes[1].Size.Height = math.NaN() }, true},
		{"duplicate edge", func(d *diagram.Diagram) {
			d.Edges = append(d.Edges, diagram.Edge{ID: "e1", Source: "b", Target: "a"})
		}, true},
		{"empty edge id", func(d *diagram.Diagram) { d.Edges[0].ID = "" }, true},
		{"empty group id", func(d *diagram.Diagram) { d.Groups[0].ID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(&d)
			err := ValidateDiagram(d)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDiagram() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
