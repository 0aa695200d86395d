package browser

import (
	"context"
	"time"

	"github.com/oetools/oequery/pkg/selectors"
)

// Page is the narrow surface the driver needs from a browser page. The
// playwright adapter implements it for live runs; tests drive the state
// machine with fixture implementations and no network.
type Page interface {
	// Navigate loads a URL, waiting for the DOM to be ready.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Find returns the first visible element matching the selector,
	// without waiting.
	Find(selector string) (Element, bool)

	// WaitFor waits up to timeout for a visible element matching the
	// selector.
	WaitFor(selector string, timeout time.Duration) (Element, bool)

	// Screenshot writes a screenshot to path.
	Screenshot(path string, fullPage bool) error

	// Closed reports whether the page has been torn down underneath us.
	Closed() bool
}

// Element is a handle on a located page element.
type Element interface {
	Click() error

	// Type appends text via discrete key events; pacing between events is
	// the caller's job.
	Type(text string) error

	// Fill replaces the element's content in one bulk injection.
	Fill(text string) error

	Press(key string) error

	// Value reads the element's current input value.
	Value() (string, error)

	// Text reads the rendered text content.
	Text() (string, error)

	// HTML reads the inner HTML subtree.
	HTML() (string, error)
}

// resolve walks a logical target's fallback chain: one quick pass over all
// candidates first, then a waiting pass that splits the timeout across the
// chain. A total miss reports the target name and everything tried.
func resolve(page Page, reg *selectors.Registry, target selectors.Target, timeout time.Duration) (Element, string, error) {
	chain := reg.Candidates(target)
	if len(chain) == 0 {
		return nil, "", &ElementNotFoundError{Target: target}
	}

	for _, sel := range chain {
		if el, ok := page.Find(sel); ok {
			return el, sel, nil
		}
	}

	perCandidate := timeout / time.Duration(len(chain))
	if perCandidate < 500*time.Millisecond {
		perCandidate = 500 * time.Millisecond
	}
	for _, sel := range chain {
		if el, ok := page.WaitFor(sel, perCandidate); ok {
			return el, sel, nil
		}
	}
	return nil, "", &ElementNotFoundError{Target: target, Tried: chain}
}

// dismissPopups clicks through any visible consent dialogs (HIPAA, cookie
// banners). They can appear at any point in the exchange. Returns how many
// were dismissed.
func dismissPopups(page Page, reg *selectors.Registry) int {
	dismissed := 0
	for _, sel := range reg.Candidates(selectors.PopupDismiss) {
		el, ok := page.Find(sel)
		if !ok {
			continue
		}
		if err := el.Click(); err == nil {
			dismissed++
		}
	}
	return dismissed
}
