package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Routed 42 edges (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks writes observability events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnLayoutStart(_ context.Context, mode string, nodeCount int) {
	h.logger.Debug("layout started", "mode", mode, "nodes", nodeCount)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, mode string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout failed", "mode", mode, "duration", d, "err", err)
		return
	}
	h.logger.Debug("layout finished", "mode", mode, "duration", d)
}

func (h *logHooks) OnSolveComplete(_ context.Context, solver string, nodeCount int, d time.Duration, err error) {
	h.logger.Debug("solver returned", "solver", solver, "nodes", nodeCount, "duration", d, "err", err)
}

func (h *logHooks) OnCrossingsReduced(_ context.Context, before, after int) {
	h.logger.Debug("crossings reduced", "before", before, "after", after)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *logHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}
