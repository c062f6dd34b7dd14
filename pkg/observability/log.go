package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug line on a logger. It implements
// [AnalysisHooks], [CacheHooks] and [HTTPHooks] so that a single value can
// be registered for all three.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log through l, or through the default
// logger when l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnAnalyzeStart(_ context.Context, source string, size int) {
	h.Logger.Debug("analysis started", "source", source, "bytes", size)
}

func (h *LogHooks) OnAnalyzeComplete(_ context.Context, source string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("analysis failed", "source", source, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("analysis complete", "source", source, "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnSimulate(_ context.Context, target string, impacted int, d time.Duration) {
	h.Logger.Debug("simulation", "target", target, "impacted", impacted, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string, nodes int) {
	h.Logger.Debug("render started", "format", format, "nodes", nodes)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "format", format, "err", err)
		return
	}
	h.Logger.Debug("render complete", "format", format, "bytes", size, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "route", route, "status", status, "duration", d)
}
