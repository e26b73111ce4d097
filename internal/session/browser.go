package session

import (
	"context"
	"fmt"
	"runtime"

	"github.com/chromedp/chromedp"
)

// BrowserPoolConfig bounds the headless-browser pool JavaScriptHeavy
// adapters draw from.
type BrowserPoolConfig struct {
	MaxContexts      int
	MaxPagesPerCtx   int
	MemoryWatermarkMB uint64
}

// DefaultBrowserPoolConfig defaults to at most 4 concurrent
// browser contexts.
func DefaultBrowserPoolConfig() BrowserPoolConfig {
	return BrowserPoolConfig{
		MaxContexts:       4,
		MaxPagesPerCtx:    5,
		MemoryWatermarkMB: 1536,
	}
}

// BrowserHandle is a leased chromedp context; callers must call Release
// exactly once, on every exit path (including error returns).
type BrowserHandle struct {
	Ctx    context.Context
	cancel context.CancelFunc
	pool   *BrowserPool
}

// Release tears down the browser context and frees its pool slot.
func (h *BrowserHandle) Release() {
	h.cancel()
	<-h.pool.slots
}

// BrowserPool bounds concurrent headless-browser contexts and gates new
// acquisitions behind a process-wide memory watermark, so a burst of
// JavaScriptHeavy crawls can't push the process into OOM territory.
type BrowserPool struct {
	cfg   BrowserPoolConfig
	slots chan struct{}
}

// NewBrowserPool creates a pool bounded by cfg.MaxContexts.
func NewBrowserPool(cfg BrowserPoolConfig) *BrowserPool {
	if cfg.MaxContexts <= 0 {
		cfg.MaxContexts = DefaultBrowserPoolConfig().MaxContexts
	}
	return &BrowserPool{
		cfg:   cfg,
		slots: make(chan struct{}, cfg.MaxContexts),
	}
}

// Acquire returns an error at once if the process is over the configured
// memory watermark; otherwise it blocks (respecting ctx) until a context
// slot is free, then returns a leased BrowserHandle. Callers must Release it.
func (p *BrowserPool) Acquire(ctx context.Context) (*BrowserHandle, error) {
	if p.overWatermark() {
		return nil, fmt.Errorf("session: process memory over watermark (%d MB), rejecting new browser context", p.cfg.MemoryWatermarkMB)
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		browserCancel()
		allocCancel()
	}

	return &BrowserHandle{Ctx: browserCtx, cancel: cancel, pool: p}, nil
}

// overWatermark reports whether the process's current heap usage exceeds
// the configured memory watermark. Gated on Go's own runtime stats rather
// than OS-reported RSS, matching how the rest of this module stays
// dependency-free for process introspection.
func (p *BrowserPool) overWatermark() bool {
	if p.cfg.MemoryWatermarkMB == 0 {
		return false
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc/(1024*1024) > p.cfg.MemoryWatermarkMB
}

// InUse reports the number of currently leased browser contexts.
func (p *BrowserPool) InUse() int {
	return len(p.slots)
}
