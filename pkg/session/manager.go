package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/oetools/oequery/pkg/config"
	"github.com/oetools/oequery/pkg/selectors"
)

// Presence is the side-effect-free answer to "do we have a session?".
type Presence string

const (
	PresenceAbsent      Presence = "absent"
	PresenceUnvalidated Presence = "present-unvalidated"
	PresenceValid       Presence = "valid"
	PresenceExpired     Presence = "expired"
)

// setupPollInterval paces the wait for the user to finish interactive
// sign-in. The wait itself is unbounded; humans are slow.
const setupPollInterval = 2 * time.Second

// Manager owns the lifecycle of authenticated browser contexts: interactive
// setup, validation against the live site, and handing out contexts
// pre-loaded with the stored session.
type Manager struct {
	cfg   *config.Config
	store *Store
	reg   *selectors.Registry
	log   *zap.Logger
}

// NewManager wires a Manager from its collaborators.
func NewManager(cfg *config.Config, store *Store, reg *selectors.Registry, log *zap.Logger) *Manager {
	return &Manager{cfg: cfg, store: store, reg: reg, log: log}
}

// Status reports on the stored session without touching the browser.
func (m *Manager) Status() (Presence, *Metadata, error) {
	sess, err := m.store.Load()
	if err != nil {
		return PresenceAbsent, nil, err
	}
	if sess == nil {
		return PresenceAbsent, nil, nil
	}
	switch sess.Meta.Status {
	case StatusValid:
		return PresenceValid, &sess.Meta, nil
	case StatusExpired, StatusInvalid:
		return PresenceExpired, &sess.Meta, nil
	default:
		return PresenceUnvalidated, &sess.Meta, nil
	}
}

// Setup opens a visible browser on the sign-in entry point and waits,
// unbounded, for the user to complete the third-party sign-in. On success
// the resulting session is captured and persisted. Closing the browser
// before authenticating returns ErrSetupAborted.
func (m *Manager) Setup(ctx context.Context) error {
	bctx, err := m.launch(false, nil)
	if err != nil {
		return err
	}
	defer bctx.Close()

	page := bctx.Page()
	if err := m.open(page, m.cfg.BaseURL); err != nil {
		if isClosedErr(err) {
			return ErrSetupAborted
		}
		return err
	}

	// Already signed in from the persistent profile? Then there is
	// nothing interactive to wait for.
	if _, _, ok := m.findVisible(page, selectors.LoggedInIndicator); ok {
		m.log.Info("existing browser profile is already signed in")
		return m.capture(bctx)
	}

	// Best-effort click of the login entry; if the chain misses, the user
	// can click it themselves.
	if el, sel, ok := m.findVisible(page, selectors.LoginButton); ok {
		m.log.Debug("clicking login button", zap.String("selector", sel))
		_ = el.Click()
	} else {
		m.log.Warn("login button not found; complete sign-in manually in the browser window")
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: interrupted", ErrSetupAborted)
		case <-time.After(setupPollInterval):
		}

		if bctx.Closed() {
			return ErrSetupAborted
		}
		if _, sel, ok := m.findVisible(page, selectors.LoggedInIndicator); ok {
			m.log.Info("sign-in detected", zap.String("indicator", sel))
			return m.capture(bctx)
		}
	}
}

// capture persists the context's current storage state as a valid session.
func (m *Manager) capture(bctx *Context) error {
	state, err := bctx.StorageStateJSON()
	if err != nil {
		return err
	}
	return m.store.Save(&AuthSession{
		State: state,
		Meta: Metadata{
			Provider:  "apple",
			CreatedAt: time.Now().UTC(),
			Status:    StatusValid,
		},
	})
}

// Validate opens a headless context with the stored session and checks the
// live site for an authenticated-state marker. The stored state is not
// mutated on failure; deciding to reauth is the caller's call.
func (m *Manager) Validate(ctx context.Context) (bool, error) {
	sess, err := m.store.Load()
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, ErrNotAuthenticated
	}

	bctx, err := m.launch(true, sess)
	if err != nil {
		return false, err
	}
	defer bctx.Close()

	page := bctx.Page()
	if err := m.open(page, m.cfg.BaseURL); err != nil {
		return false, err
	}
	if err := sleepCtx(ctx, 1500*time.Millisecond); err != nil {
		return false, err
	}

	if _, sel, ok := m.findVisible(page, selectors.LoggedInIndicator); ok {
		m.log.Debug("authenticated marker found", zap.String("selector", sel))
		if err := m.store.SetStatus(StatusValid, time.Now().UTC()); err != nil {
			m.log.Warn("failed to record validation result", zap.Error(err))
		}
		return true, nil
	}

	// Weaker signal: the question input only renders for signed-in users.
	if _, _, ok := m.findVisible(page, selectors.QuestionInput); ok {
		if err := m.store.SetStatus(StatusValid, time.Now().UTC()); err != nil {
			m.log.Warn("failed to record validation result", zap.Error(err))
		}
		return true, nil
	}
	return false, nil
}

// Reauth is clear-then-setup: authentication failures always require
// explicit operator action, never a silent retry.
func (m *Manager) Reauth(ctx context.Context) error {
	if err := m.Clear(); err != nil {
		return err
	}
	return m.Setup(ctx)
}

// Clear delegates to the Store.
func (m *Manager) Clear() error {
	return m.store.Clear()
}

// AcquireContext returns a live browser context pre-loaded with the stored
// session. A missing or known-bad session fails fast with
// ErrNotAuthenticated; dispatching a query unauthenticated only burns time.
func (m *Manager) AcquireContext(ctx context.Context, headless bool) (*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if sess.Meta.Status == StatusExpired || sess.Meta.Status == StatusInvalid {
		return nil, fmt.Errorf("%w (stored session is %s; run 'oeq auth reauth')", ErrNotAuthenticated, sess.Meta.Status)
	}
	return m.launch(headless, sess)
}

// launch starts the driver and opens a persistent context over the profile
// directory, optionally injecting stored session cookies. All launch
// failures surface as BrowserLaunchError and are not retried.
func (m *Manager) launch(headless bool, sess *AuthSession) (*Context, error) {
	// Discard driver output so it cannot interleave with the answer
	// payload on stdout.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, &BrowserLaunchError{Op: "install", Err: err}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, &BrowserLaunchError{Op: "start", Err: err}
	}

	if err := os.MkdirAll(m.cfg.ProfileDir(), 0o700); err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser profile dir: %w", err)
	}

	browser, err := pw.Chromium.LaunchPersistentContext(m.cfg.ProfileDir(),
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(headless),
			Args:     config.LaunchArgs(),
			Viewport: &playwright.Size{
				Width:  m.cfg.ViewportWidth,
				Height: m.cfg.ViewportHeight,
			},
			UserAgent:  playwright.String(m.cfg.UserAgent),
			Locale:     playwright.String(m.cfg.Locale),
			TimezoneId: playwright.String(m.cfg.Timezone),
		})
	if err != nil {
		_ = pw.Stop()
		return nil, &BrowserLaunchError{Op: "launch", Err: err}
	}

	if sess != nil {
		if err := injectState(browser, sess.State); err != nil {
			// Cookies that fail to inject are not fatal; the profile
			// may still carry a working session.
			m.log.Warn("session cookie injection failed", zap.Error(err))
		}
	}

	var page playwright.Page
	if pages := browser.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = browser.NewPage()
		if err != nil {
			_ = browser.Close()
			_ = pw.Stop()
			return nil, &BrowserLaunchError{Op: "open page", Err: err}
		}
	}
	page.SetDefaultTimeout(float64(m.cfg.ElementTimeout.Milliseconds()))

	return &Context{pw: pw, browser: browser, page: page}, nil
}

func (m *Manager) open(page playwright.Page, url string) error {
	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(m.cfg.PageLoadTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// findVisible walks a target's fallback chain and returns the first visible
// match along with the selector that hit.
func (m *Manager) findVisible(page playwright.Page, target selectors.Target) (playwright.ElementHandle, string, bool) {
	for _, sel := range m.reg.Candidates(target) {
		el, err := page.QuerySelector(sel)
		if err != nil || el == nil {
			continue
		}
		if visible, err := el.IsVisible(); err == nil && visible {
			return el, sel, true
		}
	}
	return nil, "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
