// Package engine is satchel's core: two gated FIFO action queues, the
// credential harvester feeding one of the gates, and the facade that turns
// caller requests into queued actions whose results come back as bus
// notifications.
//
// The browser queue is gated on the interactive session being ready; the
// api queue is gated on credentials having been harvested from observed
// traffic. The two gates open at uncorrelated times, so an action that only
// needs the session never waits on API credentials and vice versa. Within a
// queue, actions run strictly in arrival order and failures are isolated
// per action. There is no ordering guarantee between the queues.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odvcencio/satchel/pkg/browser"
	"github.com/odvcencio/satchel/pkg/bus"
	"github.com/odvcencio/satchel/pkg/config"
	"github.com/odvcencio/satchel/pkg/logging"
	"github.com/odvcencio/satchel/pkg/portal"
)

// consentSelector is the portal's cookie-consent dialog button. The dialog
// appears on some tenants only; its absence within the load timeout is
// treated as success.
const consentSelector = "#agree_button"

// Engine is the public facade. One engine owns one interactive session, one
// credentials record, and one pair of queues; multiple engines in the same
// process are fully independent.
type Engine struct {
	cfg     *config.Config
	logger  *logging.Logger
	bus     bus.MessageBus
	runtime browser.Runtime
	client  *portal.Client

	browserQ  *gatedQueue
	apiQ      *gatedQueue
	harvester *Harvester

	session browser.Session
	rootCtx context.Context
}

// New assembles an engine from validated configuration and its
// collaborators. The runtime is injected so tests can substitute a fake
// session driver.
func New(cfg *config.Config, logger *logging.Logger, b bus.MessageBus, runtime browser.Runtime) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		bus:     b,
		runtime: runtime,
		client:  portal.NewClient(cfg.Portal.BaseURL, cfg.Portal.FetchTimeout),
		rootCtx: context.Background(),
	}
	e.browserQ = newGatedQueue(QueueBrowser, logger)
	e.apiQ = newGatedQueue(QueueAPI, logger)
	return e, nil
}

// Start establishes the interactive session, runs the login flow, starts
// traffic observation, and opens the browser gate. Its return is the
// initialization promise: a fatal session-establishment error propagates
// out of it, and no queued action runs before it succeeds. Start does not
// wait for API credentials; the api gate opens on its own once the
// harvester has both signals.
func (e *Engine) Start(ctx context.Context) error {
	e.rootCtx = ctx

	sessCfg := browser.DefaultSessionConfig()
	sessCfg.SessionID = uuid.NewString()
	sessCfg.Headless = !e.cfg.Debug
	sessCfg.NavTimeout = e.cfg.Portal.NavTimeout
	sessCfg.WatchURLs = []string{portal.StreamPath, portal.StreamPagePath}

	session, err := e.runtime.NewSession(ctx, sessCfg)
	if err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	e.session = session

	e.harvester = NewHarvester(e.logger, func() {
		e.logger.Info(logging.CategoryHarvest, "credentials_ready",
			"cookie and identity harvested; api queue unblocked", nil)
		e.apiQ.OpenGate(ctx)
	})
	go e.pumpTraffic()

	if err := e.login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// The stream page is where the identity fragment and the stream API
	// call come from; queue its navigation so it is the first browser
	// action to run once the gate opens.
	e.browserQ.Enqueue(ctx, e.navigateStreamAction())

	// Opened exactly once, whether or not a login was needed.
	e.browserQ.OpenGate(ctx)
	e.logger.Info(logging.CategorySession, "session_ready", "interactive session ready", map[string]any{
		"headless": !e.cfg.Debug,
	})
	return nil
}

// login drives the portal's login form if one is present. An
// already-authenticated session presents no form and is not an error.
func (e *Engine) login(ctx context.Context) error {
	if err := e.session.Navigate(ctx, e.cfg.Portal.BaseURL); err != nil {
		return fmt.Errorf("navigate portal: %w", err)
	}

	html, err := e.session.PageSource(ctx)
	if err != nil {
		return fmt.Errorf("read login page: %w", err)
	}

	form, needLogin := portal.DetectLoginForm(html)
	if !needLogin {
		e.logger.Info(logging.CategorySession, "already_authenticated",
			"no login form present; reusing existing portal session", nil)
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.Portal.LoadTimeout)
	err = e.session.WaitVisible(waitCtx, form.UsernameSelector)
	cancel()
	if err != nil {
		return fmt.Errorf("login form never became visible: %w", err)
	}

	if err := e.session.SendKeys(ctx, form.UsernameSelector, e.cfg.Identity.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := e.session.SendKeys(ctx, form.PasswordSelector, e.cfg.Identity.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := e.session.Click(ctx, form.SubmitSelector); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	e.dismissConsent(ctx)
	return nil
}

// dismissConsent clicks the consent dialog if it shows up. Its absence
// within the load timeout is a legitimate state, logged at WARN and treated
// as success.
func (e *Engine) dismissConsent(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.Portal.LoadTimeout)
	defer cancel()

	if err := e.session.WaitVisible(waitCtx, consentSelector); err != nil {
		if browser.IsTimeout(err) {
			e.logger.Warn(logging.CategorySession, "consent_absent",
				"consent dialog not shown; continuing", nil)
		} else {
			e.logger.Warn(logging.CategorySession, "consent_wait_failed",
				fmt.Sprintf("consent dialog wait failed: %v", err), nil)
		}
		return
	}
	if err := e.session.Click(ctx, consentSelector); err != nil {
		e.logger.Warn(logging.CategorySession, "consent_click_failed",
			fmt.Sprintf("consent dialog click failed: %v", err), nil)
	}
}

// pumpTraffic forwards the session's traffic feed into the harvester and
// the passive stream observer. Exits when the session closes its feed.
func (e *Engine) pumpTraffic() {
	for ev := range e.session.Traffic() {
		metricTrafficObserved.WithLabelValues(string(ev.Kind)).Inc()
		e.harvester.Observe(ev)
		e.observeStream(ev)
	}
}

// observeStream emits a notification for intercepted activity-stream
// responses. Responses whose originating request does not carry the
// expected provider signature are a different data kind and are ignored
// without a log, matching the portal's own behavior.
func (e *Engine) observeStream(ev browser.TrafficEvent) {
	if ev.Kind != browser.TrafficResponse || ev.Body == "" {
		return
	}
	if !strings.Contains(ev.URL, portal.StreamPath) {
		return
	}
	if !portal.HasProviderSignature(ev.RequestBody) {
		return
	}
	e.emitActivities([]byte(ev.Body))
}

// RequestCourses queues a course-enrollments fetch. Fire-and-forget: the
// result arrives as a "satchel.fetch.courses" notification.
func (e *Engine) RequestCourses() {
	e.apiQ.Enqueue(e.rootCtx, func(ctx context.Context) error {
		creds := e.harvester.Credentials()
		raw, err := e.client.FetchMemberships(ctx, creds.Cookie, creds.UserID())
		if err != nil {
			return fmt.Errorf("fetch memberships: %w", err)
		}
		e.emitCourses(raw)
		return nil
	})
}

// RequestActivities queues an activity-stream fetch. Fire-and-forget: the
// result arrives as a "satchel.fetch.assignments" notification.
func (e *Engine) RequestActivities() {
	e.apiQ.Enqueue(e.rootCtx, func(ctx context.Context) error {
		creds := e.harvester.Credentials()
		raw, err := e.client.FetchActivityStream(ctx, creds.Cookie)
		if err != nil {
			return fmt.Errorf("fetch activity stream: %w", err)
		}
		e.emitActivities(raw)
		return nil
	})
}

// RefreshStream queues a navigation back to the stream page, provoking a
// fresh intercepted stream response. Needs only the session, so it rides
// the browser queue.
func (e *Engine) RefreshStream() {
	e.browserQ.Enqueue(e.rootCtx, e.navigateStreamAction())
}

func (e *Engine) navigateStreamAction() Action {
	return func(ctx context.Context) error {
		if err := e.session.Navigate(ctx, e.cfg.Portal.BaseURL+portal.StreamPagePath); err != nil {
			return fmt.Errorf("navigate stream page: %w", err)
		}
		return nil
	}
}

func (e *Engine) emitCourses(raw []byte) {
	payload, diag := portal.TransformCourses(raw)
	if diag != nil {
		e.logger.Warn(logging.CategoryPortal, "courses_degraded", diag.Error(), nil)
	}
	e.publish(bus.SubjectCourses, payload)
}

func (e *Engine) emitActivities(raw []byte) {
	payload, diag := portal.TransformActivities(raw)
	if diag != nil {
		e.logger.Warn(logging.CategoryPortal, "activities_degraded", diag.Error(), nil)
	}
	e.publish(bus.SubjectAssignments, payload)
}

func (e *Engine) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error(logging.CategoryPortal, "marshal_failed",
			fmt.Sprintf("marshal %s payload: %v", subject, err), nil)
		return
	}
	if err := e.bus.Publish(e.rootCtx, subject, data); err != nil {
		e.logger.Error(logging.CategoryPortal, "publish_failed",
			fmt.Sprintf("publish %s: %v", subject, err), nil)
	}
}

// Credentials exposes the harvested material, read-only. Nil-safe before
// Start.
func (e *Engine) Credentials() Credentials {
	if e.harvester == nil {
		return Credentials{}
	}
	return e.harvester.Credentials()
}

// Close shuts down the session. The bus is owned by the caller and is left
// open.
func (e *Engine) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Close()
}
