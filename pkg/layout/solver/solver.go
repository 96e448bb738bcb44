// Package solver connects the compound graph to an external layout solver.
//
// The solver itself is a black box behind the [Solver] interface: it receives
// the compound graph with node sizes and spacing hints and returns a position
// for every top-level item plus group-relative positions for every child. The
// [Adapter] corrects spacing for groups before the call, translates child
// coordinates to the global canvas afterwards, and turns every way the call
// can go wrong into an explicit error.
package solver

import (
	"context"
	"errors"
	"math"

	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/layout/compound"
)

// Default spacing hints handed to the solver before group correction.
const (
	DefaultEdgeLength  = 200.0
	DefaultNodeSpacing = 80.0
)

// Request is one solver call.
type Request struct {
	Graph *compound.Graph

	// EdgeLength is the desired length of a top-level edge, in canvas units.
	EdgeLength float64
	// NodeSpacing is the minimum gap the solver should keep between boxes.
	NodeSpacing float64
}

// Result holds solver output.
//
// Positions maps every top-level item ID to the top-left corner of its box in
// absolute canvas coordinates. Children maps a group parent ID to the
// top-left corners of its children, relative to the parent's top-left.
type Result struct {
	Positions map[string]diagram.Position
	Children  map[string]map[string]diagram.Position
}

// Solver computes positions for a compound graph.
type Solver interface {
	Solve(ctx context.Context, req *Request) (*Result, error)
}

// Func adapts an ordinary function to the [Solver] interface.
type Func func(ctx context.Context, req *Request) (*Result, error)

// Solve calls f(ctx, req).
func (f Func) Solve(ctx context.Context, req *Request) (*Result, error) { return f(ctx, req) }

// Adapter runs a [Solver] and maps its output back onto diagram nodes.
// The zero value is not usable; construct one with [NewAdapter].
type Adapter struct {
	solver Solver

	// EdgeLength and NodeSpacing are the base spacing hints. Zero values
	// fall back to DefaultEdgeLength and DefaultNodeSpacing.
	EdgeLength  float64
	NodeSpacing float64
}

// NewAdapter returns an adapter that borrows s for every call.
func NewAdapter(s Solver) *Adapter {
	return &Adapter{solver: s}
}

// Spacing returns the edge length and node spacing to request for g.
//
// When g has group parents, both hints grow with the largest group's
// footprint: the solver sizes a parent only after laying out its children,
// so without the correction top-level items land on top of groups.
func (a *Adapter) Spacing(g *compound.Graph) (edgeLength, nodeSpacing float64) {
	edgeLength, nodeSpacing = a.EdgeLength, a.NodeSpacing
	if edgeLength <= 0 {
		edgeLength = DefaultEdgeLength
	}
	if nodeSpacing <= 0 {
		nodeSpacing = DefaultNodeSpacing
	}
	if !g.HasGroups() {
		return edgeLength, nodeSpacing
	}
	fp := g.MaxFootprint()
	return edgeLength + fp/2, nodeSpacing + fp/4
}

// Layout builds the compound graph, solves it and returns a copy of nodes
// with every position replaced by the solver's answer.
//
// Any solver failure is returned as an error; positions are never zeroed or
// left stale. A context deadline is reported as [errs.ErrCodeTimeout].
func (a *Adapter) Layout(ctx context.Context, nodes []diagram.Node, edges []diagram.Edge, groups []diagram.Group) ([]diagram.Node, error) {
	g := compound.Build(nodes, edges, groups)
	out := diagram.CloneNodes(nodes)
	if len(g.Items) == 0 {
		return out, nil
	}

	positions, err := a.Solve(ctx, g)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Position = positions[out[i].ID]
	}
	return out, nil
}

// Solve runs the solver on g and returns absolute node positions keyed by
// node ID. Every node in g is guaranteed a finite position on success.
func (a *Adapter) Solve(ctx context.Context, g *compound.Graph) (map[string]diagram.Position, error) {
	if a == nil || a.solver == nil {
		return nil, errs.New(errs.ErrCodeSolverUnavailable, "no layout solver configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	edgeLength, nodeSpacing := a.Spacing(g)
	req := &Request{Graph: g, EdgeLength: edgeLength, NodeSpacing: nodeSpacing}

	res, err := a.await(ctx, req)
	if err != nil {
		return nil, err
	}
	return translate(g, res)
}

type outcome struct {
	res *Result
	err error
}

// await waits for exactly the solver call, or for ctx to end first.
func (a *Adapter) await(ctx context.Context, req *Request) (*Result, error) {
	done := make(chan outcome, 1)
	go func() {
		res, err := a.solver.Solve(ctx, req)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	case o := <-done:
		if o.err != nil {
			if errors.Is(o.err, context.DeadlineExceeded) || errors.Is(o.err, context.Canceled) {
				return nil, contextError(o.err)
			}
			var coded *errs.Error
			if errors.As(o.err, &coded) {
				return nil, o.err
			}
			return nil, errs.Wrap(errs.ErrCodeSolverFailed, o.err, "layout solver")
		}
		if o.res == nil {
			return nil, errs.New(errs.ErrCodeSolverFailed, "layout solver returned no result")
		}
		return o.res, nil
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrCodeTimeout, err, "layout solver timed out")
	}
	return errs.Wrap(errs.ErrCodeSolverFailed, err, "layout solver cancelled")
}

// translate converts solver output to absolute node positions.
func translate(g *compound.Graph, res *Result) (map[string]diagram.Position, error) {
	out := make(map[string]diagram.Position, g.NodeCount())
	for _, it := range g.Items {
		p, ok := res.Positions[it.ID]
		if !ok {
			return nil, errs.New(errs.ErrCodeSolverFailed, "layout solver returned no position for %q", it.ID)
		}
		if !finite(p) {
			return nil, errs.New(errs.ErrCodeSolverFailed, "layout solver returned non-finite position for %q", it.ID)
		}
		if !it.IsGroup() {
			out[it.ID] = p
			continue
		}

		local := res.Children[it.ID]
		for _, c := range it.Children {
			cp, ok := local[c.ID]
			if !ok {
				return nil, errs.New(errs.ErrCodeSolverFailed, "layout solver returned no position for %q in group %q", c.ID, it.GroupID)
			}
			abs := diagram.Position{X: p.X + cp.X, Y: p.Y + cp.Y}
			if !finite(abs) {
				return nil, errs.New(errs.ErrCodeSolverFailed, "layout solver returned non-finite position for %q", c.ID)
			}
			out[c.ID] = abs
		}
	}
	return out, nil
}

func finite(p diagram.Position) bool {
	return p.IsFinite() && math.Abs(p.X) < math.MaxFloat32 && math.Abs(p.Y) < math.MaxFloat32
}
