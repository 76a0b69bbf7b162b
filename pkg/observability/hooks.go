// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about command application, dataset recomputation, pipeline
// execution, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetDocumentHooks(&myDocumentHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, page, widgetCount)
//	// ... solve layout ...
//	observability.Pipeline().OnLayoutComplete(ctx, page, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Document Hooks
// =============================================================================

// DocumentHooks receives events from document mutation and dataset
// recomputation. These run synchronously inside the engine, so
// implementations must be fast.
type DocumentHooks interface {
	// OnCommand records a successfully applied command.
	OnCommand(name string, revision int64)

	// OnUndo records an undone command.
	OnUndo(name string, revision int64)

	// OnRedo records a redone command.
	OnRedo(name string, revision int64)

	// OnRecompute records the evaluation of one derived dataset.
	OnRecompute(dataset string, duration time.Duration, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the export pipeline.
type PipelineHooks interface {
	// Settle events (dataset recomputation before layout)
	OnSettleStart(ctx context.Context, dirtyCount int)
	OnSettleComplete(ctx context.Context, recomputed int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, page string, widgetCount int)
	OnLayoutComplete(ctx context.Context, page string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDocumentHooks is a no-op implementation of DocumentHooks.
type NoopDocumentHooks struct{}

func (NoopDocumentHooks) OnCommand(string, int64)                     {}
func (NoopDocumentHooks) OnUndo(string, int64)                        {}
func (NoopDocumentHooks) OnRedo(string, int64)                        {}
func (NoopDocumentHooks) OnRecompute(string, time.Duration, error)    {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnSettleStart(context.Context, int)                                 {}
func (NoopPipelineHooks) OnSettleComplete(context.Context, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                         {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)     {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                            {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	documentHooks DocumentHooks = NoopDocumentHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetDocumentHooks registers custom document hooks.
// This should be called once at application startup before any document operations.
func SetDocumentHooks(h DocumentHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		documentHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Document returns the registered document hooks.
func Document() DocumentHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return documentHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	documentHooks = NoopDocumentHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
