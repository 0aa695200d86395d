package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Context is a live browser context with an open page. It is explicitly
// owned by the caller: acquire it, use it, and Close it on every exit path.
// There is no shared global browser.
type Context struct {
	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    playwright.Page

	closeOnce sync.Once
	closeErr  error
}

// Page returns the context's active page.
func (c *Context) Page() playwright.Page {
	return c.page
}

// Closed reports whether the page has been torn down, e.g. by the user
// closing the browser window.
func (c *Context) Closed() bool {
	return c.page.IsClosed()
}

// StorageStateJSON captures the context's current cookies and origin
// storage as the serialized form the Store persists.
func (c *Context) StorageStateJSON() ([]byte, error) {
	state, err := c.browser.StorageState()
	if err != nil {
		return nil, fmt.Errorf("failed to capture storage state: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage state: %w", err)
	}
	return data, nil
}

// Close tears down the page, context, and driver process. Safe to call
// multiple times and from deferred paths.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		if c.page != nil {
			_ = c.page.Close() // ignore errors, continue cleanup
		}
		if c.browser != nil {
			_ = c.browser.Close()
		}
		if c.pw != nil {
			c.closeErr = c.pw.Stop()
		}
	})
	return c.closeErr
}

// storedState mirrors the cookie portion of the serialized storage state.
// Parsed independently of the driver's own types so an older state file
// still restores after a library upgrade.
type storedState struct {
	Cookies []storedCookie `json:"cookies"`
}

type storedCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// injectState adds the stored cookies into a freshly launched context.
// Origin storage rides along with the persistent profile; cookies are
// injected explicitly because session cookies do not survive in the
// profile alone.
func injectState(browser playwright.BrowserContext, state json.RawMessage) error {
	var st storedState
	if err := json.Unmarshal(state, &st); err != nil {
		return fmt.Errorf("failed to decode stored state: %w", err)
	}
	if len(st.Cookies) == 0 {
		return nil
	}

	cookies := make([]playwright.OptionalCookie, 0, len(st.Cookies))
	for _, c := range st.Cookies {
		cookie := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Expires != 0 {
			cookie.Expires = playwright.Float(c.Expires)
		}
		switch c.SameSite {
		case "Strict":
			cookie.SameSite = playwright.SameSiteAttributeStrict
		case "Lax":
			cookie.SameSite = playwright.SameSiteAttributeLax
		case "None":
			cookie.SameSite = playwright.SameSiteAttributeNone
		}
		cookies = append(cookies, cookie)
	}
	if err := browser.AddCookies(cookies); err != nil {
		return fmt.Errorf("failed to inject session cookies: %w", err)
	}
	return nil
}
