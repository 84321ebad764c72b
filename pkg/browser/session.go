// Package browser defines the interactive-session port the engine drives
// the portal through: navigation, form interaction, and an observed
// network-traffic feed. The chromedp adapter provides the real
// implementation; tests substitute fakes.
package browser

import "context"

// Runtime manages interactive sessions.
type Runtime interface {
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
	Close() error
}

// Session is a single controllable browser-like session.
// All blocking calls honor their context's deadline.
type Session interface {
	ID() string

	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the CSS selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error

	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error

	// SendKeys types text into the element matching the selector.
	SendKeys(ctx context.Context, selector, text string) error

	// Text returns the text content of the first matching element.
	Text(ctx context.Context, selector string) (string, error)

	// PageSource returns the current document's outer HTML.
	PageSource(ctx context.Context) (string, error)

	// CurrentURL returns the current document location.
	CurrentURL(ctx context.Context) (string, error)

	// Traffic returns the session's network observation feed. The channel
	// is closed when the session closes.
	Traffic() <-chan TrafficEvent

	Close() error
}
