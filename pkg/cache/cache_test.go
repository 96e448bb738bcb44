package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache reported a hit")
	}

	if err := c.Set(ctx, "layout:abc", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if string(data) != `{"nodes":[]}` {
		t.Errorf("Get = %q", data)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type doc struct {
		A int
		B map[string]int
	}
	h1, err := HashJSON(doc{A: 1, B: map[string]int{"x": 1, "y": 2}})
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := HashJSON(doc{A: 1, B: map[string]int{"y": 2, "x": 1}})
	if h1 != h2 {
		t.Error("map order should not change the hash")
	}
	if _, err := HashJSON(make(chan int)); err == nil {
		t.Error("expected error for an unencodable value")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Mode: "full", Tuning: "t1"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Mode: "tidy", Tuning: "t1"})
	lk3 := k.LayoutKey("hash123", LayoutKeyOpts{Mode: "full", Tuning: "t2"})
	if lk1 == lk2 || lk1 == lk3 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey unexpected: %s", lk1)
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{Mode: "full", Tuning: "t1"}) {
		t.Error("LayoutKey should be deterministic")
	}

	rk := k.RouteKey("hash123", RouteKeyOpts{})
	if !strings.HasPrefix(rk, "route:") {
		t.Errorf("RouteKey unexpected: %s", rk)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "scryer:test:")

	key := scoped.LayoutKey("h", LayoutKeyOpts{})
	if key != "scryer:test:"+inner.LayoutKey("h", LayoutKeyOpts{}) {
		t.Errorf("ScopedKeyer LayoutKey unexpected: %s", key)
	}
	if !strings.HasPrefix(scoped.RouteKey("h", RouteKeyOpts{}), "scryer:test:route:") {
		t.Error("ScopedKeyer RouteKey should be prefixed")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if !strings.HasPrefix(scoped.LayoutKey("h", LayoutKeyOpts{}), "prefix:layout:") {
		t.Error("nil inner keyer should fall back to the default keyer")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	errFatal := errors.New("fatal")

	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return errFatal
	})
	if err != errFatal || calls != 1 {
		t.Errorf("non-retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("exhausted: err %v after %d calls", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url"); err == nil {
		t.Error("expected error for an invalid redis url")
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0"); err == nil {
		t.Error("expected error for an unreachable redis server")
	}
}
