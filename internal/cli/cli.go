// Package cli implements the scryer-layout command-line interface.
//
// The CLI lays out diagram snapshots stored as JSON, routes their edges,
// serves the same pipeline over HTTP and browses results in the terminal.
// It is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Position every node of a diagram and route its edges
//   - route: Assign connection handles without moving nodes
//   - serve: Run the HTTP layout service
//   - inspect: Browse a layout result interactively
//   - cache: Manage the local result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs every pipeline and cache event.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/aklos/scryer-sub000/pkg/buildinfo"
	"github.com/aklos/scryer-sub000/pkg/cache"
	"github.com/aklos/scryer-sub000/pkg/config"
	"github.com/aklos/scryer-sub000/pkg/layout/solver/fdp"
	"github.com/aklos/scryer-sub000/pkg/observability"
	"github.com/aklos/scryer-sub000/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "scryer-layout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// EnableHookLogging logs every layout and cache event at debug level.
func (c *CLI) EnableHookLogging() {
	h := &logHooks{logger: c.Logger}
	observability.SetLayoutHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Lay out and route architecture diagrams",
		Long:         `scryer-layout positions the boxes of an architecture diagram with a force-directed solver, tidies hubs and edge crossings, and picks connection handles for every edge.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	fc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(fdp.New(), fc, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// loadTuning reads a tuning file, or returns the defaults when path is empty.
func loadTuning(path string) (config.Tuning, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scryer-layout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
