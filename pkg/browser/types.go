package browser

import (
	"strings"
	"time"
)

// TrafficKind distinguishes observed requests from responses.
type TrafficKind string

const (
	TrafficRequest  TrafficKind = "request"
	TrafficResponse TrafficKind = "response"
)

// TrafficEvent is one observed record from the session's network feed.
// Request events carry outgoing headers; response events carry the status,
// the originating request's body, and the response body when the URL is on
// the session's watch list.
type TrafficEvent struct {
	Kind        TrafficKind       `json:"kind"`
	URL         string            `json:"url"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Status      int               `json:"status,omitempty"`
	Body        string            `json:"body,omitempty"`
	RequestBody string            `json:"request_body,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Header returns a header value by case-insensitive name.
func (e TrafficEvent) Header(name string) string {
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Viewport defines the session viewport size.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SessionConfig configures an interactive session.
type SessionConfig struct {
	SessionID  string        `json:"session_id"`
	Headless   bool          `json:"headless"`
	UserAgent  string        `json:"user_agent,omitempty"`
	Viewport   Viewport      `json:"viewport"`
	NavTimeout time.Duration `json:"nav_timeout,omitempty"`

	// WatchURLs lists URL substrings whose response bodies are captured
	// into the traffic feed. Everything else is reported headers-only.
	WatchURLs []string `json:"watch_urls,omitempty"`
}

// Watches reports whether a URL's response body should be captured.
func (c SessionConfig) Watches(url string) bool {
	for _, w := range c.WatchURLs {
		if w != "" && strings.Contains(url, w) {
			return true
		}
	}
	return false
}

// DefaultSessionConfig returns the recommended session defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Headless: true,
		Viewport: Viewport{
			Width:  1280,
			Height: 720,
		},
		NavTimeout: 30 * time.Second,
	}
}
