// Package pipeline chains the layout stages into one call.
//
// The CLI and the HTTP service both go through a [Runner], so caching,
// logging and error mapping behave the same at every entry point.
//
// # Architecture
//
// A full layout runs four stages over a diagram snapshot:
//
//  1. Solve: aggregate groups into a compound graph and hand it to the
//     external solver (skipped in tidy mode, where unplaced nodes are seeded
//     onto a grid instead)
//  2. Normalise: pull hub neighbours onto compass slots
//  3. Untangle: permute small clusters of nodes to remove edge crossings
//  4. Route: pick connection handles for every edge
//
// Only the solve stage can fail. The other stages are pure functions of
// their input and never return errors.
//
// # Usage
//
//	runner := pipeline.NewRunner(fdp.New(), fileCache, nil, logger)
//	res, err := runner.Layout(ctx, d, pipeline.Options{Mode: pipeline.ModeFull})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, n := range res.Nodes {
//	    fmt.Println(n.ID, n.Position)
//	}
//
// Handle routing is also available on its own:
//
//	handles, err := runner.Route(ctx, nodes, edges, pipeline.Options{})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aklos/scryer-sub000/pkg/cache"
	"github.com/aklos/scryer-sub000/pkg/config"
	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
)

// =============================================================================
// Modes
// =============================================================================

const (
	// ModeFull runs the external solver before post-processing.
	ModeFull = "full"

	// ModeTidy keeps caller positions, seeds unplaced nodes onto a grid and
	// runs only the post-processing stages.
	ModeTidy = "tidy"

	// DefaultMode is used when Options.Mode is empty.
	DefaultMode = ModeFull
)

// ValidModes is the set of supported layout modes.
var ValidModes = map[string]bool{
	ModeFull: true,
	ModeTidy: true,
}

// ValidateMode checks that a mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errs.New(errs.ErrCodeInvalidMode, "invalid mode: %q (must be one of: full, tidy)", mode)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline call. It supports JSON for API requests.
type Options struct {
	Mode string `json:"mode,omitempty"`

	// Tuning holds every constant of the layout stages. The zero value
	// selects config.Default().
	Tuning config.Tuning `json:"tuning"`

	// Refresh skips the cache lookup but still stores the fresh result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.Tuning == (config.Tuning{}) {
		o.Tuning = config.Default()
	}
	if err := o.Tuning.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// IsTidy returns true if the solver stage is skipped.
func (o *Options) IsTidy() bool {
	return o.Mode == ModeTidy
}

// tuningFingerprint hashes the tuning so that any changed constant changes
// the cache key.
func (o *Options) tuningFingerprint() string {
	h, err := cache.HashJSON(o.Tuning)
	if err != nil {
		return ""
	}
	return h
}

// LayoutKeyOpts returns cache key options for a layout computed by solver.
func (o *Options) LayoutKeyOpts(solver string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Mode:   o.Mode,
		Solver: solver,
		Tuning: o.tuningFingerprint(),
	}
}

// RouteKeyOpts returns cache key options for a handle assignment.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{Tuning: o.tuningFingerprint()}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a layout call.
type Result struct {
	// Nodes holds every input node, in input order, with its new position.
	Nodes []diagram.Node `json:"nodes"`

	// Handles maps edge IDs to their connection handles. Dangling edges
	// have no entry.
	Handles map[string]diagram.HandlePair `json:"handles"`

	// Stats contains timing and stage reports.
	Stats Stats `json:"stats"`

	// CacheHit is true when the result came from the cache.
	CacheHit bool `json:"cacheHit"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int `json:"nodeCount"`
	EdgeCount  int `json:"edgeCount"`
	GroupCount int `json:"groupCount"`

	SolveTime time.Duration `json:"solveTime"`
	TotalTime time.Duration `json:"totalTime"`

	// Hub normalisation
	Hubs  int `json:"hubs"`
	Moved int `json:"moved"`

	// Crossing reduction
	CrossingsBefore int `json:"crossingsBefore"`
	CrossingsAfter  int `json:"crossingsAfter"`
	Clusters        int `json:"clusters"`
	SkippedClusters int `json:"skippedClusters"`
}

// String formats the stats for log lines.
func (s Stats) String() string {
	return fmt.Sprintf("%d nodes, %d edges, crossings %d -> %d", s.NodeCount, s.EdgeCount, s.CrossingsBefore, s.CrossingsAfter)
}
