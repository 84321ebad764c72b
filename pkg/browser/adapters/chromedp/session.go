package chromedp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/odvcencio/satchel/pkg/browser"
)

// pendingRequest accumulates what CDP reports about one request across its
// several events. requestWillBeSent, its ExtraInfo pair, and
// responseReceived arrive in no guaranteed order.
type pendingRequest struct {
	url     string
	method  string
	status  int
	headers map[string]string
	watched bool
}

type session struct {
	id     string
	cfg    browser.SessionConfig
	ctx    context.Context
	cancel context.CancelFunc

	traffic chan browser.TrafficEvent

	mu      sync.Mutex
	pending map[string]*pendingRequest
	closed  bool
}

func (s *session) ID() string {
	return s.id
}

// start boots the tab: enables network domain, applies viewport and UA.
func (s *session) start(ctx context.Context) error {
	actions := []chromedp.Action{
		network.Enable(),
		emulation.SetDeviceMetricsOverride(int64(s.cfg.Viewport.Width), int64(s.cfg.Viewport.Height), 1.0, false),
	}
	if s.cfg.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(s.cfg.UserAgent))
	}
	return s.run(ctx, actions...)
}

// listen subscribes to CDP network events and forwards them as TrafficEvents.
func (s *session) listen() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			s.onRequest(e)
		case *network.EventRequestWillBeSentExtraInfo:
			s.onRequestExtra(e)
		case *network.EventResponseReceived:
			s.onResponse(e)
		case *network.EventLoadingFinished:
			s.onLoadingFinished(e)
		}
	})
}

func (s *session) onRequest(e *network.EventRequestWillBeSent) {
	id := string(e.RequestID)

	s.mu.Lock()
	p := s.ensurePending(id)
	p.url = e.Request.URL
	p.method = e.Request.Method
	p.watched = s.cfg.Watches(e.Request.URL)
	s.mu.Unlock()

	s.emit(browser.TrafficEvent{
		Kind:      browser.TrafficRequest,
		URL:       e.Request.URL,
		Method:    e.Request.Method,
		Headers:   flattenHeaders(e.Request.Headers),
		Timestamp: time.Now(),
	})
}

// onRequestExtra carries the wire-level request headers, including the
// Cookie header the harvester is after; requestWillBeSent does not.
func (s *session) onRequestExtra(e *network.EventRequestWillBeSentExtraInfo) {
	id := string(e.RequestID)

	s.mu.Lock()
	p := s.ensurePending(id)
	url, method := p.url, p.method
	s.mu.Unlock()

	s.emit(browser.TrafficEvent{
		Kind:      browser.TrafficRequest,
		URL:       url,
		Method:    method,
		Headers:   flattenHeaders(e.Headers),
		Timestamp: time.Now(),
	})
}

func (s *session) onResponse(e *network.EventResponseReceived) {
	id := string(e.RequestID)

	s.mu.Lock()
	p := s.ensurePending(id)
	if p.url == "" {
		p.url = e.Response.URL
		p.watched = s.cfg.Watches(e.Response.URL)
	}
	p.status = int(e.Response.Status)
	p.headers = flattenHeaders(e.Response.Headers)
	watched := p.watched
	event := browser.TrafficEvent{
		Kind:      browser.TrafficResponse,
		URL:       p.url,
		Method:    p.method,
		Headers:   p.headers,
		Status:    p.status,
		Timestamp: time.Now(),
	}
	if !watched {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	// Watched responses are emitted once the body is available.
	if !watched {
		s.emit(event)
	}
}

func (s *session) onLoadingFinished(e *network.EventLoadingFinished) {
	id := string(e.RequestID)

	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok || !p.watched {
		return
	}

	// Body retrieval must happen on the target's executor, off the event
	// callback goroutine.
	go func() {
		c := chromedp.FromContext(s.ctx)
		if c == nil {
			return
		}
		execCtx := cdp.WithExecutor(s.ctx, c.Target)

		event := browser.TrafficEvent{
			Kind:      browser.TrafficResponse,
			URL:       p.url,
			Method:    p.method,
			Headers:   p.headers,
			Status:    p.status,
			Timestamp: time.Now(),
		}
		if body, err := network.GetResponseBody(e.RequestID).Do(execCtx); err == nil {
			event.Body = string(body)
		}
		if p.method == "POST" {
			if postData, err := network.GetRequestPostData(e.RequestID).Do(execCtx); err == nil {
				event.RequestBody = postData
			}
		}
		s.emit(event)
	}()
}

// ensurePending returns the tracking record for a request ID, creating it
// if unseen. Caller holds s.mu.
func (s *session) ensurePending(id string) *pendingRequest {
	p, ok := s.pending[id]
	if !ok {
		p = &pendingRequest{}
		s.pending[id] = p
	}
	return p
}

// emit forwards an event on the traffic feed. The send is non-blocking: a
// consumer that cannot keep up loses events rather than stalling the CDP
// event loop. Guarded by s.mu so no send can race the feed's close.
func (s *session) emit(event browser.TrafficEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.traffic <- event:
	default:
	}
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if s.cfg.NavTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NavTimeout)
		defer cancel()
	}
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *session) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *session) SendKeys(ctx context.Context, selector, text string) error {
	return s.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (s *session) Text(ctx context.Context, selector string) (string, error) {
	var out string
	err := s.run(ctx, chromedp.Text(selector, &out, chromedp.ByQuery))
	return out, err
}

func (s *session) PageSource(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *session) Traffic() <-chan browser.TrafficEvent {
	return s.traffic
}

func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return browser.ErrSessionClosed
	}
	s.closed = true
	close(s.traffic)
	s.mu.Unlock()

	s.cancel()
	return nil
}

// run executes chromedp actions against the tab, bounded by the caller's
// context, and normalizes driver errors.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return browser.ErrSessionClosed
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(s.ctx, actions...)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return browser.WrapDriverError("timeout", "cdp action timed out", browser.ErrOperationTimeout)
			}
			return browser.WrapDriverError("cdp", "cdp action failed", err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return browser.WrapDriverError("timeout", "cdp action timed out", browser.ErrOperationTimeout)
		}
		return ctx.Err()
	}
}

// flattenHeaders converts CDP's loosely typed header map to strings.
func flattenHeaders(h network.Headers) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = fmt.Sprint(v)
	}
	return out
}
