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

var errFlaky = errors.New("flaky")

func init() {
	retryDelay = time.Millisecond
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
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

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v err %v", hit, err)
	}

	if err := c.Set(ctx, "svg:abc", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "svg:abc")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get = %q hit %v err %v", data, hit, err)
	}

	if err := c.Delete(ctx, "svg:abc"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "svg:abc"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "svg:abc"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
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
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v err %v, want miss", hit, err)
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
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestPrefixed(t *testing.T) {
	ctx := context.Background()
	inner, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := Prefixed(inner, "lockrisk:")

	if err := p.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := inner.Get(ctx, "lockrisk:k"); !hit {
		t.Error("prefixed key not found in inner cache")
	}
	if _, hit, _ := inner.Get(ctx, "k"); hit {
		t.Error("unprefixed key should not exist")
	}
	if err := p.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := inner.Get(ctx, "lockrisk:k"); hit {
		t.Error("Delete did not apply prefix")
	}
}

func TestPrefixedNilInner(t *testing.T) {
	p := Prefixed(nil, "x:")
	if _, hit, err := p.Get(context.Background(), "k"); hit || err != nil {
		t.Errorf("Get = hit %v err %v", hit, err)
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

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.SessionKey("abc"); got != "session:abc" {
		t.Errorf("SessionKey = %s", got)
	}

	k1 := k.SVGKey("hash123", SVGKeyOpts{})
	k2 := k.SVGKey("hash123", SVGKeyOpts{Detailed: true})
	k3 := k.SVGKey("hash123", SVGKeyOpts{Target: "b@2.0.0"})
	if k1 == k2 || k1 == k3 || k2 == k3 {
		t.Error("Different SVGKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(k1, "svg:") {
		t.Errorf("SVGKey should be prefixed: %s", k1)
	}
	if k1 != k.SVGKey("hash123", SVGKeyOpts{}) {
		t.Error("SVGKey should be deterministic")
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{addr: "localhost:6379", want: "localhost:6379"},
		{addr: "redis://cache.internal:6380/2", want: "cache.internal:6380"},
		{addr: "", wantErr: true},
		{addr: "http://nope", wantErr: true},
	}
	for _, tt := range tests {
		opts, err := redisOptions(RedisConfig{Addr: tt.addr, DialTimeout: time.Second})
		if tt.wantErr {
			if err == nil {
				t.Errorf("redisOptions(%q) should fail", tt.addr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("redisOptions(%q): %v", tt.addr, err)
		}
		if opts.Addr != tt.want || opts.DialTimeout != time.Second {
			t.Errorf("redisOptions(%q) = %s %v", tt.addr, opts.Addr, opts.DialTimeout)
		}
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
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap")
	}
	if IsRetryable(errFlaky) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, 3, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err %v calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, func() error {
		calls++
		return errFlaky
	})
	if err != errFlaky || calls != 1 {
		t.Errorf("non-retryable: err %v calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, func() error {
		calls++
		if calls < 2 {
			return Retryable(errFlaky)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err %v calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, func() error {
		calls++
		return Retryable(errFlaky)
	})
	if !errors.Is(err, errFlaky) || calls != 3 {
		t.Errorf("exhausted: err %v calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, func() error {
		return Retryable(errFlaky)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
