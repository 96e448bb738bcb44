package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aklos/scryer-sub000/pkg/cache"
	"github.com/aklos/scryer-sub000/pkg/diagram"
	"github.com/aklos/scryer-sub000/pkg/layout/compass"
	"github.com/aklos/scryer-sub000/pkg/layout/crossing"
	"github.com/aklos/scryer-sub000/pkg/layout/solver"
	"github.com/aklos/scryer-sub000/pkg/observability"
	"github.com/aklos/scryer-sub000/pkg/routing"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the solver, cache and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options as long as the solver allows it.
type Runner struct {
	Solver solver.Solver
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner around the given solver.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// A nil solver is allowed; full-mode layouts then fail with SOLVER_UNAVAILABLE.
func NewRunner(s solver.Solver, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Solver: s,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// SolverName returns the name used for the solver in cache keys and hooks.
func (r *Runner) SolverName() string {
	if r.Solver == nil {
		return "none"
	}
	if n, ok := r.Solver.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r.Solver)
}

// Layout positions every node of d and routes every edge.
//
// The returned nodes are in input order and the input is never modified.
// In full mode a solver failure aborts the call with the solver's coded
// error; nothing is cached in that case.
func (r *Runner) Layout(ctx context.Context, d diagram.Diagram, opts Options) (res *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	start := time.Now()
	key := ""
	if h, herr := cache.HashJSON(d); herr == nil {
		key = r.Keyer.LayoutKey(h, opts.LayoutKeyOpts(r.SolverName()))
	}

	// Try cache first (unless refresh requested)
	if key != "" && !opts.Refresh {
		if cached, ok := r.cachedLayout(ctx, key, len(d.Nodes)); ok {
			logger.Debug("layout cache hit", "nodes", len(cached.Nodes))
			return cached, nil
		}
	}

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, opts.Mode, len(d.Nodes))
	defer func() {
		hooks.OnLayoutComplete(ctx, opts.Mode, time.Since(start), err)
	}()

	res = &Result{}
	res.Stats.NodeCount = len(d.Nodes)
	res.Stats.EdgeCount = len(d.Edges)
	res.Stats.GroupCount = len(diagram.NewIndex(d.Nodes, d.Groups).ActiveGroups())

	// Stage 1: Solve
	nodes, err := r.solve(ctx, d, opts, &res.Stats)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	// Stage 2: Normalise hubs
	nodes, crep := compass.Normalize(nodes, d.Edges, d.Groups, opts.Tuning.CompassOptions())
	res.Stats.Hubs = crep.Hubs
	res.Stats.Moved = crep.Moved
	logger.Debug("normalized hubs", "hubs", crep.Hubs, "moved", crep.Moved)

	// Stage 3: Untangle
	nodes, xrep := crossing.Reduce(nodes, d.Edges, d.Groups, opts.Tuning.CrossingOptions())
	res.Stats.CrossingsBefore = xrep.Before
	res.Stats.CrossingsAfter = xrep.After
	res.Stats.Clusters = xrep.Clusters
	res.Stats.SkippedClusters = xrep.Skipped
	hooks.OnCrossingsReduced(ctx, xrep.Before, xrep.After)
	logger.Debug("reduced crossings",
		"before", xrep.Before,
		"after", xrep.After,
		"clusters", xrep.Clusters,
		"skipped", xrep.Skipped)

	// Stage 4: Route
	res.Nodes = nodes
	res.Handles = routing.Route(nodes, d.Edges, opts.Tuning.RoutingOptions())
	res.Stats.TotalTime = time.Since(start)

	logger.Info("computed layout",
		"mode", opts.Mode,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"crossings", res.Stats.CrossingsAfter,
		"duration", res.Stats.TotalTime)

	if key != "" {
		r.store(ctx, "layout", key, res, cache.TTLLayout)
	}
	return res, nil
}

// solve produces the starting positions for post-processing.
func (r *Runner) solve(ctx context.Context, d diagram.Diagram, opts Options, stats *Stats) ([]diagram.Node, error) {
	if opts.IsTidy() {
		return diagram.SeedGrid(d.Nodes), nil
	}

	adapter := solver.NewAdapter(r.Solver)
	adapter.EdgeLength = opts.Tuning.Solver.EdgeLength
	adapter.NodeSpacing = opts.Tuning.Solver.NodeSpacing

	ctx, cancel := context.WithTimeout(ctx, opts.Tuning.Solver.Timeout.Duration)
	defer cancel()

	solveStart := time.Now()
	nodes, err := adapter.Layout(ctx, d.Nodes, d.Edges, d.Groups)
	stats.SolveTime = time.Since(solveStart)
	observability.Layout().OnSolveComplete(ctx, r.SolverName(), len(d.Nodes), stats.SolveTime, err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("solved layout",
		"solver", r.SolverName(),
		"nodes", len(nodes),
		"duration", stats.SolveTime)
	return nodes, nil
}

// cachedLayout returns a cached result when one exists and still matches
// the diagram's node count.
func (r *Runner) cachedLayout(ctx context.Context, key string, nodeCount int) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil || len(res.Nodes) != nodeCount {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	res.CacheHit = true
	return &res, true
}

// routeInput is the part of a diagram a handle assignment depends on.
type routeInput struct {
	Nodes []diagram.Node `json:"nodes"`
	Edges []diagram.Edge `json:"edges"`
}

// Route assigns connection handles without moving any node.
func (r *Runner) Route(ctx context.Context, nodes []diagram.Node, edges []diagram.Edge, opts Options) (map[string]diagram.HandlePair, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	key := ""
	if h, err := cache.HashJSON(routeInput{Nodes: nodes, Edges: edges}); err == nil {
		key = r.Keyer.RouteKey(h, opts.RouteKeyOpts())
	}

	if key != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var handles map[string]diagram.HandlePair
			if err := json.Unmarshal(data, &handles); err == nil {
				observability.Cache().OnCacheHit(ctx, "route")
				return handles, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "route")
	}

	start := time.Now()
	handles := routing.Route(nodes, edges, opts.Tuning.RoutingOptions())
	opts.Logger.Info("routed edges",
		"edges", len(handles),
		"duration", time.Since(start))

	if key != "" {
		r.store(ctx, "route", key, handles, cache.TTLRoute)
	}
	return handles, nil
}

// store writes v to the cache. Cache failures never fail the call.
func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
