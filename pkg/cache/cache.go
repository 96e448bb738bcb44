// Package cache stores layout results between calls.
//
// A [Cache] is a byte store with per-entry expiry. Three backends exist:
// [NullCache] disables caching, [FileCache] keeps entries on disk for the
// CLI, and [RedisCache] shares entries between instances of the HTTP
// service. Keys are produced by a [Keyer] so that every input that can
// change a result also changes its key.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLLayout is how long a solved layout stays valid. Layouts are pure
	// functions of their key, so this only bounds storage growth.
	TTLLayout = 7 * 24 * time.Hour

	// TTLRoute is how long a handle assignment stays valid.
	TTLRoute = 24 * time.Hour
)

// Cache is a key/value byte store with expiry.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss;
	// expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key for a full pipeline result.
	LayoutKey(diagramHash string, opts LayoutKeyOpts) string

	// RouteKey returns the key for a handle assignment.
	RouteKey(diagramHash string, opts RouteKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a layout result.
type LayoutKeyOpts struct {
	Mode   string `json:"mode"`
	Solver string `json:"solver"`
	// Tuning is a fingerprint of the tuning parameters in effect.
	Tuning string `json:"tuning"`
}

// RouteKeyOpts holds every option that changes a handle assignment.
type RouteKeyOpts struct {
	Tuning string `json:"tuning"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(diagramHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", diagramHash, opts)
}

// RouteKey implements [Keyer].
func (DefaultKeyer) RouteKey(diagramHash string, opts RouteKeyOpts) string {
	return hashKey("route", diagramHash, opts)
}

var _ Keyer = DefaultKeyer{}
