package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aklos/scryer-sub000/pkg/cache"
	"github.com/aklos/scryer-sub000/pkg/config"
	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/layout/crossing"
	"github.com/aklos/scryer-sub000/pkg/layout/solver"
)

// rowSolver places top-level items left to right and group children in a
// column inside their parent.
type rowSolver struct {
	calls atomic.Int32
}

func (s *rowSolver) Name() string { return "row" }

func (s *rowSolver) Solve(_ context.Context, req *solver.Request) (*solver.Result, error) {
	s.calls.Add(1)
	res := &solver.Result{
		Positions: map[string]diagram.Position{},
		Children:  map[string]map[string]diagram.Position{},
	}
	for i, it := range req.Graph.Items {
		res.Positions[it.ID] = diagram.Position{X: float64(i) * 400, Y: float64(i%2) * 300}
		if !it.IsGroup() {
			continue
		}
		kids := map[string]diagram.Position{}
		for k, c := range it.Children {
			kids[c.ID] = diagram.Position{X: 20, Y: 20 + float64(k)*200}
		}
		res.Children[it.ID] = kids
	}
	return res, nil
}

func failing(err error) solver.Solver {
	return solver.Func(func(context.Context, *solver.Request) (*solver.Result, error) {
		return nil, err
	})
}

func sample() diagram.Diagram {
	return diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "api"}, {ID: "db"}, {ID: "cache"}, {ID: "worker"}, {ID: "queue"},
		},
		Edges: []diagram.Edge{
			{ID: "e1", Source: "api", Target: "db"},
			{ID: "e2", Source: "api", Target: "cache"},
			{ID: "e3", Source: "worker", Target: "queue"},
			{ID: "e4", Source: "api", Target: "queue"},
			{ID: "e5", Source: "worker", Target: "ghost"},
		},
		Groups: []diagram.Group{{ID: "store", MemberIDs: []string{"db", "cache"}}},
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"full", false},
		{"tidy", false},
		{"FULL", true}, // case-sensitive
		{"", true},
		{"fast", true},
	}

	for _, tt := range tests {
		err := ValidateMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
		if err != nil && !errs.Is(err, errs.ErrCodeInvalidMode) {
			t.Errorf("ValidateMode(%q) code = %q", tt.mode, errs.GetCode(err))
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options: %v", err)
	}
	if opts.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", opts.Mode, DefaultMode)
	}
	if opts.Tuning != config.Default() {
		t.Error("zero tuning should become the default tuning")
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	opts.Mode = "bogus"
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op: %v", err)
	}

	bad := Options{Tuning: config.Default()}
	bad.Tuning.Crossing.MaxCluster = 1
	if err := bad.ValidateAndSetDefaults(); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("bad tuning: err = %v, want INVALID_CONFIG", err)
	}
}

func TestLayoutKeyOptsTrackTuning(t *testing.T) {
	a := Options{}
	b := Options{}
	_ = a.ValidateAndSetDefaults()
	_ = b.ValidateAndSetDefaults()
	if a.LayoutKeyOpts("fdp") != b.LayoutKeyOpts("fdp") {
		t.Error("equal options should give equal key options")
	}
	b.Tuning.Routing.CornerPenalty++
	if a.LayoutKeyOpts("fdp") == b.LayoutKeyOpts("fdp") {
		t.Error("a tuning change should change the key options")
	}
	if a.RouteKeyOpts() == b.RouteKeyOpts() {
		t.Error("a tuning change should change the route key options")
	}
}

func TestLayoutFull(t *testing.T) {
	d := sample()
	r := NewRunner(&rowSolver{}, nil, nil, nil)

	res, err := r.Layout(context.Background(), d, Options{})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(res.Nodes) != len(d.Nodes) {
		t.Fatalf("got %d nodes, want %d", len(res.Nodes), len(d.Nodes))
	}
	for i, n := range res.Nodes {
		if n.ID != d.Nodes[i].ID {
			t.Errorf("node %d = %q, want %q", i, n.ID, d.Nodes[i].ID)
		}
		if !n.Position.IsFinite() {
			t.Errorf("node %s has non-finite position %+v", n.ID, n.Position)
		}
	}
	if len(res.Handles) != 4 {
		t.Errorf("got %d routed edges, want 4 (dangling edge skipped)", len(res.Handles))
	}
	for id, p := range res.Handles {
		if !p.SourceHandle.Valid() || !p.TargetHandle.Valid() {
			t.Errorf("edge %s has invalid handles %+v", id, p)
		}
	}
	if got := crossing.Count(res.Nodes, d.Edges); got != res.Stats.CrossingsAfter {
		t.Errorf("CrossingsAfter = %d, counted %d", res.Stats.CrossingsAfter, got)
	}
	if res.Stats.GroupCount != 1 {
		t.Errorf("GroupCount = %d, want 1", res.Stats.GroupCount)
	}
	if res.CacheHit {
		t.Error("NullCache cannot produce a hit")
	}

	// The input is left untouched.
	for _, n := range d.Nodes {
		if !n.Position.IsOrigin() {
			t.Errorf("input node %s was moved", n.ID)
		}
	}
}

func TestLayoutIsDeterministic(t *testing.T) {
	r := NewRunner(&rowSolver{}, nil, nil, nil)
	first, err := r.Layout(context.Background(), sample(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		again, err := r.Layout(context.Background(), sample(), Options{})
		if err != nil {
			t.Fatal(err)
		}
		for i := range first.Nodes {
			if first.Nodes[i].Position != again.Nodes[i].Position {
				t.Fatalf("node %s moved between runs", first.Nodes[i].ID)
			}
		}
		for id, p := range first.Handles {
			if again.Handles[id] != p {
				t.Fatalf("edge %s routed differently between runs", id)
			}
		}
	}
}

func TestLayoutSolverFailure(t *testing.T) {
	cause := errs.New(errs.ErrCodeSolverFailed, "boom")
	r := NewRunner(failing(cause), nil, nil, nil)

	res, err := r.Layout(context.Background(), sample(), Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if res != nil {
		t.Error("a failed layout must not return positions")
	}
	if !errs.Is(err, errs.ErrCodeSolverFailed) {
		t.Errorf("code = %q, want SOLVER_FAILED", errs.GetCode(err))
	}
	if !errors.Is(err, cause) {
		t.Error("error should wrap the solver's error")
	}
}

func TestLayoutNoSolver(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	_, err := r.Layout(context.Background(), sample(), Options{})
	if !errs.Is(err, errs.ErrCodeSolverUnavailable) {
		t.Errorf("err = %v, want SOLVER_UNAVAILABLE", err)
	}
}

func TestLayoutTimeout(t *testing.T) {
	slow := solver.Func(func(ctx context.Context, _ *solver.Request) (*solver.Result, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil, ctx.Err()
	})
	r := NewRunner(slow, nil, nil, nil)

	opts := Options{Tuning: config.Default()}
	opts.Tuning.Solver.Timeout = config.Duration{Duration: 20 * time.Millisecond}
	_, err := r.Layout(context.Background(), sample(), opts)
	if !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
}

func TestLayoutTidySkipsSolver(t *testing.T) {
	s := &rowSolver{}
	r := NewRunner(s, nil, nil, nil)
	d := diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "a", Position: diagram.Position{X: 900, Y: 900}},
			{ID: "b"},
			{ID: "c"},
		},
	}

	res, err := r.Layout(context.Background(), d, Options{Mode: ModeTidy})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if s.calls.Load() != 0 {
		t.Error("tidy mode called the solver")
	}
	want := map[string]diagram.Position{
		"a": {X: 900, Y: 900},
		"b": {X: 100, Y: 100},
		"c": {X: 350, Y: 100},
	}
	for _, n := range res.Nodes {
		if n.Position != want[n.ID] {
			t.Errorf("%s at %+v, want %+v", n.ID, n.Position, want[n.ID])
		}
	}
}

func TestLayoutInvalidMode(t *testing.T) {
	r := NewRunner(&rowSolver{}, nil, nil, nil)
	_, err := r.Layout(context.Background(), sample(), Options{Mode: "fast"})
	if !errs.Is(err, errs.ErrCodeInvalidMode) {
		t.Errorf("err = %v, want INVALID_MODE", err)
	}
}

func TestLayoutCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := &rowSolver{}
	r := NewRunner(s, fc, nil, nil)
	defer r.Close()
	ctx := context.Background()

	first, err := r.Layout(ctx, sample(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Layout(ctx, sample(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second identical call should hit the cache")
	}
	if s.calls.Load() != 1 {
		t.Errorf("solver called %d times, want 1", s.calls.Load())
	}
	for i := range first.Nodes {
		if first.Nodes[i].Position != second.Nodes[i].Position {
			t.Errorf("cached node %s differs", first.Nodes[i].ID)
		}
	}

	if _, err := r.Layout(ctx, sample(), Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if s.calls.Load() != 2 {
		t.Error("Refresh should bypass the cache")
	}

	if res, _ := r.Layout(ctx, sample(), Options{Mode: ModeTidy}); res.CacheHit {
		t.Error("a different mode must not share the cache entry")
	}
}

func TestRoute(t *testing.T) {
	nodes := []diagram.Node{
		{ID: "a"},
		{ID: "b", Position: diagram.Position{X: 280}},
	}
	edges := []diagram.Edge{{ID: "e", Source: "a", Target: "b"}}

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, fc, nil, nil)
	for range 2 {
		handles, err := r.Route(context.Background(), nodes, edges, Options{})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		want := diagram.HandlePair{SourceHandle: diagram.HandleRight, TargetHandle: diagram.HandleLeft}
		if handles["e"] != want {
			t.Errorf("Route = %+v, want %+v", handles["e"], want)
		}
	}
}

func TestSolverName(t *testing.T) {
	if got := NewRunner(&rowSolver{}, nil, nil, nil).SolverName(); got != "row" {
		t.Errorf("SolverName = %q, want row", got)
	}
	if got := NewRunner(nil, nil, nil, nil).SolverName(); got != "none" {
		t.Errorf("SolverName = %q, want none", got)
	}
	if got := NewRunner(failing(nil), nil, nil, nil).SolverName(); got == "" {
		t.Error("unnamed solvers still need a name")
	}
}
