package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	// Test that it can log
	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	if prog == nil {
		t.Fatal("newProgress() returned nil")
	}

	// Small delay to ensure measurable duration
	time.Sleep(10 * time.Millisecond)

	prog.done("test completed")

	output := buf.String()
	if output == "" {
		t.Error("progress.done() should produce output")
	}

	// Should contain the message
	if !bytes.Contains(buf.Bytes(), []byte("test completed")) {
		t.Error("progress.done() output should contain message")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := &logHooks{logger: newLogger(&buf, log.DebugLevel)}
	ctx := context.Background()

	h.OnLayoutStart(ctx, "full", 3)
	h.OnSolveComplete(ctx, "fdp", 3, time.Millisecond, nil)
	h.OnCrossingsReduced(ctx, 2, 0)
	h.OnLayoutComplete(ctx, "full", time.Millisecond, errors.New("boom"))
	h.OnCacheHit(ctx, "layout")
	h.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"layout started", "solver returned", "crossings reduced", "layout failed", "boom", "cache hit", "/v1/layout"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}

func TestLogHooksSilentAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := &logHooks{logger: newLogger(&buf, log.InfoLevel)}
	h.OnCacheMiss(context.Background(), "route")
	if buf.Len() != 0 {
		t.Errorf("debug events should not print at info level: %q", buf.String())
	}
}
