// Package logging wires *slog.Logger through the master, chunk server, and
// client binaries without ever touching slog's global default. The
// component constructors (roster.New, namespace.New, metadata.New,
// heartbeat.New, ...) take a logger parameter and scope it once with
// With("component", ...); nothing reaches back into a package-level logger.
// transport.NewMasterService takes no logger, and raftlog.Open and
// transport.NewChunkServerService use the logger they are given unscoped.
//
// Two things follow from that:
//   - a nil logger passed down from cmd/master or cmd/chunkserver must still
//     be safe to call methods on, hence Discard/Default below
//   - because every component's logger is scoped once at construction, a
//     single log record carries enough to tell which subsystem emitted it
//     (roster, namespace, heartbeat, metadata, ...) without any component
//     needing to know about sinks, formats, or verbosity knobs
//
// Logging stays off the hot paths this repository cares about: nothing logs
// per lock acquisition in Index, per comparison in roster.Placement, or per
// byte in the raft FSM's Apply. Lifecycle events — a chunk server joining
// or being reaped from the roster, a lease grant failing — are the log
// points.
package logging

import (
	"context"
	"log/slog"
	"maps"
	"sync/atomic"
)

// discardHandler drops every record unconditionally.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard builds a logger that produces no output, for callers that have no
// logger configured yet and still need something to call methods on.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger unchanged if it is non-nil, otherwise a discard
// logger. The component constructors that accept an optional *slog.Logger
// funnel it through Default before scoping it:
//
//	func New(logger *slog.Logger) *Index {
//	    logger = logging.Default(logger).With("component", "metadata")
//	    return &Index{logger: logger}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// ComponentFilterHandler wraps another slog.Handler and applies a
// per-component minimum level on top of it, keyed off each record's
// "component" attribute. This is what backs cmd/master and
// cmd/chunkserver's log setup: both start every component at the same
// default level. SetLevel raises verbosity for a single noisy one (say,
// "heartbeat" while chasing a flapping chunk server) without touching the
// rest; neither binary exposes SetLevel through a flag or RPC.
//
// Handle() reads a lock-free atomic snapshot of the level map; SetLevel and
// ClearLevel replace that snapshot under copy-on-write, so concurrent log
// calls never block on a level change.
type ComponentFilterHandler struct {
	next         slog.Handler
	defaultLevel slog.Level

	// componentAttrs holds attributes bound via WithAttrs before any group
	// was opened. Handle() checks these for "component" first, since that is
	// how logger.With("component", "heartbeat") ends up visible to a handler
	// that only ever sees the raw Record otherwise.
	componentAttrs []slog.Attr

	// overrides is a *map[string]slog.Level behind an atomic pointer, shared
	// by every handler derived from this one via WithAttrs/WithGroup, so a
	// SetLevel call takes effect across all of them immediately.
	overrides *atomic.Pointer[map[string]slog.Level]
}

// NewComponentFilterHandler wraps next, filtering every record against
// defaultLevel unless a component-specific override has been set with
// SetLevel.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	overrides := &atomic.Pointer[map[string]slog.Level]{}
	empty := make(map[string]slog.Level)
	overrides.Store(&empty)

	return &ComponentFilterHandler{
		next:         next,
		defaultLevel: defaultLevel,
		overrides:    overrides,
	}
}

// Enabled always defers to Handle: the component attribute that decides the
// effective minimum level isn't available until the record itself arrives.
func (h *ComponentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle drops r if its level is below the configured minimum for its
// component, then forwards whatever survives to the wrapped handler.
func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	overrides := *h.overrides.Load()

	minLevel := h.defaultLevel
	if component := h.componentOf(r); component != "" {
		if level, ok := overrides[component]; ok {
			minLevel = level
		}
	}
	if r.Level < minLevel {
		return nil
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

// componentOf extracts the "component" attribute's string value, checking
// attributes bound via WithAttrs before the record's own attributes.
func (h *ComponentFilterHandler) componentOf(r slog.Record) string {
	for _, attr := range h.componentAttrs {
		if attr.Key == "component" {
			if s, ok := attr.Value.Resolve().Any().(string); ok {
				return s
			}
		}
	}

	var component string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			if s, ok := a.Value.Resolve().Any().(string); ok {
				component = s
				return false
			}
		}
		return true
	})
	return component
}

// WithAttrs returns a derived handler carrying attrs, tracking "component"
// if present so Handle can find it without re-walking the record.
func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, len(h.componentAttrs), len(h.componentAttrs)+len(attrs))
	copy(merged, h.componentAttrs)
	merged = append(merged, attrs...)

	return &ComponentFilterHandler{
		next:           h.next.WithAttrs(attrs),
		defaultLevel:   h.defaultLevel,
		componentAttrs: merged,
		overrides:      h.overrides,
	}
}

// WithGroup returns a derived handler under the named group. Level
// overrides remain shared with the parent handler.
func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ComponentFilterHandler{
		next:           h.next.WithGroup(name),
		defaultLevel:   h.defaultLevel,
		componentAttrs: h.componentAttrs,
		overrides:      h.overrides,
	}
}

// SetLevel overrides the minimum level for component, effective immediately
// for every handler sharing this filter's overrides map.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	old := *h.overrides.Load()
	updated := make(map[string]slog.Level, len(old)+1)
	maps.Copy(updated, old)
	updated[component] = level
	h.overrides.Store(&updated)
}

// ClearLevel removes component's override, reverting it to defaultLevel.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	old := *h.overrides.Load()
	if _, ok := old[component]; !ok {
		return
	}
	updated := make(map[string]slog.Level, len(old))
	for k, v := range old {
		if k != component {
			updated[k] = v
		}
	}
	h.overrides.Store(&updated)
}

// Level reports the effective minimum level for component: its override if
// one is set, otherwise the handler's default.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	overrides := *h.overrides.Load()
	if level, ok := overrides[component]; ok {
		return level
	}
	return h.defaultLevel
}

// DefaultLevel reports the minimum level applied to components with no
// override set.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	return h.defaultLevel
}
