// Package chromedp adapts a Chrome DevTools Protocol browser to the
// browser.Runtime port. Network traffic is observed through CDP network
// events and forwarded on the session's traffic feed; response bodies are
// captured only for URLs on the session's watch list.
package chromedp

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/odvcencio/satchel/pkg/browser"
)

// Runtime implements browser.Runtime on a local Chrome instance.
type Runtime struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewRuntime prepares a Chrome exec allocator. headless=false keeps the
// browser window visible for debugging; it has no protocol effect.
func NewRuntime(headless bool) *Runtime {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", headless),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Runtime{
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

// NewSession starts a browser tab configured per cfg.
func (r *Runtime) NewSession(ctx context.Context, cfg browser.SessionConfig) (browser.Session, error) {
	if r == nil || r.allocCtx == nil {
		return nil, browser.ErrUnavailable
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx)

	s := &session{
		id:      cfg.SessionID,
		cfg:     cfg,
		ctx:     tabCtx,
		cancel:  tabCancel,
		traffic: make(chan browser.TrafficEvent, 512),
		pending: make(map[string]*pendingRequest),
	}

	s.listen()

	if err := s.start(ctx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("start session: %w", err)
	}

	return s, nil
}

// Close releases the allocator and any remaining browser processes.
func (r *Runtime) Close() error {
	if r == nil || r.allocCancel == nil {
		return nil
	}
	r.allocCancel()
	return nil
}
