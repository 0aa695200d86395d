package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/oetools/oequery/pkg/selectors"
)

// NavigationError means the application root did not load.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError means every candidate selector for a logical target
// missed. This is the primary failure mode when the site's markup drifts,
// so it names the target and the selectors that were tried.
type ElementNotFoundError struct {
	Target selectors.Target
	Tried  []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element found for target %q (tried: %s); the site may have changed, update the selector registry",
		e.Target, strings.Join(e.Tried, ", "))
}

// ResponseTimeoutError means the response never stabilized within the
// configured deadline. The driver still attempts extraction of whatever
// content is present before surfacing this.
type ResponseTimeoutError struct {
	Waited time.Duration
}

func (e *ResponseTimeoutError) Error() string {
	return fmt.Sprintf("response did not stabilize within %s", e.Waited.Round(time.Second))
}

// SessionCrashedError means the browser process or page died mid-exchange.
// Not retried automatically; the stored session may be stale.
type SessionCrashedError struct {
	Op  string
	Err error
}

func (e *SessionCrashedError) Error() string {
	return fmt.Sprintf("browser session crashed during %s: %v (try 'oeq auth reauth')", e.Op, e.Err)
}

func (e *SessionCrashedError) Unwrap() error { return e.Err }

// isClosedErr matches the driver's "target closed" string errors.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "Target page, context or browser")
}
