package engine

import (
	"encoding/json"
	"sync"

	"github.com/odvcencio/satchel/pkg/browser"
	"github.com/odvcencio/satchel/pkg/logging"
	"github.com/odvcencio/satchel/pkg/portal"
	"github.com/odvcencio/satchel/pkg/textutil"
)

// Credentials is the session authentication material recovered from
// observed traffic. It is mutated only by the harvester; everything else
// reads it. Nothing persists across runs.
type Credentials struct {
	// Cookie is the most recently observed outgoing Cookie header.
	Cookie string

	// Identity is the identity fragment recovered from the stream page,
	// as raw JSON.
	Identity json.RawMessage
}

// UserID extracts the portal user ID from the identity fragment, or ""
// when the identity has not been harvested or lacks one.
func (c Credentials) UserID() string {
	if len(c.Identity) == 0 {
		return ""
	}
	var ident struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(c.Identity, &ident); err != nil {
		return ""
	}
	return ident.ID
}

// Harvester watches the session's traffic feed for two independent signals:
// a session cookie on any outgoing request (last-write-wins) and the
// identity fragment embedded in a page response body. Once both are present
// it fires onReady exactly once. Malformed identity fragments are logged
// and swallowed; the next matching response gets another chance.
type Harvester struct {
	logger  *logging.Logger
	onReady func()

	mu    sync.Mutex
	creds Credentials
	fired bool
}

// NewHarvester creates a harvester that calls onReady when both credential
// signals have been observed.
func NewHarvester(logger *logging.Logger, onReady func()) *Harvester {
	return &Harvester{
		logger:  logger,
		onReady: onReady,
	}
}

// Observe processes one traffic record. Safe to call from the feed pump
// goroutine concurrently with Credentials().
func (h *Harvester) Observe(ev browser.TrafficEvent) {
	switch ev.Kind {
	case browser.TrafficRequest:
		if cookie := ev.Header("Cookie"); cookie != "" {
			h.mu.Lock()
			h.creds.Cookie = cookie
			h.mu.Unlock()
		}
	case browser.TrafficResponse:
		h.harvestIdentity(ev)
	}
	h.checkReady()
}

func (h *Harvester) harvestIdentity(ev browser.TrafficEvent) {
	if ev.Body == "" {
		return
	}
	frag, ok := textutil.Between(ev.Body, portal.IdentityLeftMarker, portal.IdentityRightMarker)
	if !ok {
		// Markers absent is a legitimate state, not a failure.
		return
	}
	if !json.Valid([]byte(frag)) {
		h.logger.Warn(logging.CategoryHarvest, "identity_parse_failed",
			"identity fragment is not valid JSON", map[string]any{"url": ev.URL})
		return
	}

	h.mu.Lock()
	h.creds.Identity = json.RawMessage(frag)
	h.mu.Unlock()

	h.logger.Debug(logging.CategoryHarvest, "identity_harvested",
		"identity fragment recovered from page response", nil)
}

// checkReady fires onReady when both signals are present. Guarded so the
// callback runs at most once per harvester; redundant calls are free of
// side effects.
func (h *Harvester) checkReady() {
	h.mu.Lock()
	ready := h.creds.Cookie != "" && len(h.creds.Identity) > 0 && !h.fired
	if ready {
		h.fired = true
	}
	h.mu.Unlock()

	if ready && h.onReady != nil {
		h.onReady()
	}
}

// Credentials returns a snapshot of the harvested material.
func (h *Harvester) Credentials() Credentials {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creds
}
