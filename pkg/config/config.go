// Package config loads layout tuning parameters from TOML.
//
// Every field has a default, so a tuning file only needs the values it
// changes:
//
//	[solver]
//	edge_length = 240
//	timeout = "10s"
//
//	[crossing]
//	max_cluster = 7
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/layout/compass"
	"github.com/aklos/scryer-sub000/pkg/layout/crossing"
	"github.com/aklos/scryer-sub000/pkg/layout/solver"
	"github.com/aklos/scryer-sub000/pkg/routing"
)

// MaxClusterLimit bounds crossing.max_cluster; 9! is already 362880
// arrangements per cluster.
const MaxClusterLimit = 9

// DefaultSolverTimeout bounds a single solver call.
const DefaultSolverTimeout = 30 * time.Second

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Tuning holds every tunable constant of the layout pipeline.
type Tuning struct {
	Solver   SolverTuning   `toml:"solver" json:"solver"`
	Compass  CompassTuning  `toml:"compass" json:"compass"`
	Crossing CrossingTuning `toml:"crossing" json:"crossing"`
	Routing  RoutingTuning  `toml:"routing" json:"routing"`
}

// SolverTuning holds the base spacing hints for the external solver.
type SolverTuning struct {
	EdgeLength  float64  `toml:"edge_length" json:"edgeLength"`
	NodeSpacing float64  `toml:"node_spacing" json:"nodeSpacing"`
	Timeout     Duration `toml:"timeout" json:"timeout"`
}

// CompassTuning holds the hub neighbour distances.
type CompassTuning struct {
	BaseDistance float64 `toml:"base_distance" json:"baseDistance"`
	PerNeighbor  float64 `toml:"per_neighbor" json:"perNeighbor"`
}

// CrossingTuning holds the permutation search cap.
type CrossingTuning struct {
	MaxCluster int `toml:"max_cluster" json:"maxCluster"`
}

// RoutingTuning holds the handle cost penalties.
type RoutingTuning struct {
	CongestionPenalty float64 `toml:"congestion_penalty" json:"congestionPenalty"`
	CornerPenalty     float64 `toml:"corner_penalty" json:"cornerPenalty"`
}

// Default returns the built-in tuning.
func Default() Tuning {
	return Tuning{
		Solver: SolverTuning{
			EdgeLength:  solver.DefaultEdgeLength,
			NodeSpacing: solver.DefaultNodeSpacing,
			Timeout:     Duration{DefaultSolverTimeout},
		},
		Compass: CompassTuning{
			BaseDistance: compass.DefaultBaseDistance,
			PerNeighbor:  compass.DefaultPerNeighbor,
		},
		Crossing: CrossingTuning{MaxCluster: crossing.DefaultMaxCluster},
		Routing: RoutingTuning{
			CongestionPenalty: routing.DefaultCongestionPenalty,
			CornerPenalty:     routing.DefaultCornerPenalty,
		},
	}
}

// Load reads a tuning file on top of [Default] and validates the result.
func Load(path string) (Tuning, error) {
	t := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, errs.Wrap(errs.ErrCodeFileNotFound, err, "tuning file %s", path)
	}
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := Parse(data, &t); err != nil {
		return t, err
	}
	return t, nil
}

// Parse decodes TOML into t, leaving fields absent from data untouched,
// and validates the result. Unknown keys are rejected.
func Parse(data []byte, t *Tuning) error {
	md, err := toml.Decode(string(data), t)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse tuning")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown tuning key %q", undecoded[0].String())
	}
	return t.Validate()
}

// Validate checks that every value is usable.
func (t Tuning) Validate() error {
	switch {
	case t.Solver.EdgeLength <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "solver.edge_length must be positive")
	case t.Solver.NodeSpacing <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "solver.node_spacing must be positive")
	case t.Solver.Timeout.Duration <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "solver.timeout must be positive")
	case t.Compass.BaseDistance <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "compass.base_distance must be positive")
	case t.Compass.PerNeighbor < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "compass.per_neighbor must not be negative")
	case t.Crossing.MaxCluster < 2 || t.Crossing.MaxCluster > MaxClusterLimit:
		return errs.New(errs.ErrCodeInvalidConfig, "crossing.max_cluster must be between 2 and %d", MaxClusterLimit)
	case t.Routing.CongestionPenalty <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "routing.congestion_penalty must be positive")
	case t.Routing.CornerPenalty <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "routing.corner_penalty must be positive")
	}
	return nil
}

// CompassOptions returns the normaliser options for t.
func (t Tuning) CompassOptions() compass.Options {
	return compass.Options{BaseDistance: t.Compass.BaseDistance, PerNeighbor: t.Compass.PerNeighbor}
}

// CrossingOptions returns the reducer options for t.
func (t Tuning) CrossingOptions() crossing.Options {
	return crossing.Options{MaxCluster: t.Crossing.MaxCluster}
}

// RoutingOptions returns the router options for t.
func (t Tuning) RoutingOptions() routing.Options {
	return routing.Options{
		CongestionPenalty: t.Routing.CongestionPenalty,
		CornerPenalty:     t.Routing.CornerPenalty,
	}
}

// Encode writes t as TOML.
func (t Tuning) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
