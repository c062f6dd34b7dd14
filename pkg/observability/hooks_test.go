package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	a := NoopAnalysisHooks{}
	a.OnAnalyzeStart(ctx, "package-lock.json", 2048)
	a.OnAnalyzeComplete(ctx, "package-lock.json", 100, 250, time.Second, nil)
	a.OnSimulate(ctx, "debug@2.6.9", 12, time.Millisecond)
	a.OnRenderStart(ctx, "svg", 100)
	a.OnRenderComplete(ctx, "svg", 4096, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "svg")
	c.OnCacheMiss(ctx, "session")
	c.OnCacheSet(ctx, "session", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/api/analyses/{id}")
	h.OnResponse(ctx, "GET", "/api/analyses/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Analysis().(NoopAnalysisHooks); !ok {
		t.Error("Analysis() should return NoopAnalysisHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customAnalysis := &testAnalysisHooks{}
	SetAnalysisHooks(customAnalysis)
	if Analysis() != customAnalysis {
		t.Error("SetAnalysisHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Analysis().(NoopAnalysisHooks); !ok {
		t.Error("Reset() should restore NoopAnalysisHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testAnalysisHooks{}
	SetAnalysisHooks(custom)
	SetAnalysisHooks(nil)

	if Analysis() != custom {
		t.Error("SetAnalysisHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(l)
	ctx := context.Background()

	h.OnAnalyzeComplete(ctx, "lock.json", 3, 4, time.Millisecond, nil)
	h.OnAnalyzeComplete(ctx, "bad.json", 0, 0, time.Millisecond, errors.New("boom"))
	h.OnSimulate(ctx, "b@2.0.0", 2, time.Millisecond)
	h.OnCacheMiss(ctx, "svg")
	h.OnResponse(ctx, "POST", "/api/analyses", 201, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"analysis complete", "analysis failed", "boom", "b@2.0.0", "cache miss", "status=201"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	var _ AnalysisHooks = h
	var _ CacheHooks = h
	var _ HTTPHooks = h
}

// Test implementations
type testAnalysisHooks struct{ NoopAnalysisHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
