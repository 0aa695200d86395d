package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAuthenticated means no usable session is stored. The remedial
// action is always explicit: run auth setup.
var ErrNotAuthenticated = errors.New("not authenticated: run 'oeq auth setup'")

// ErrSetupAborted means the interactive sign-in ended before authentication
// completed, typically because the user closed the browser window.
var ErrSetupAborted = errors.New("setup aborted before sign-in completed")

// BrowserLaunchError wraps a failure to start or connect the browser
// runtime. It is an environment problem and is never retried.
type BrowserLaunchError struct {
	Op  string
	Err error
}

func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("browser launch failed during %s: %v (is a Chromium runtime installed?)", e.Op, e.Err)
}

func (e *BrowserLaunchError) Unwrap() error { return e.Err }

// isClosedErr reports whether an error came from the browser or page being
// torn down underneath us. Playwright surfaces these as plain strings.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "Target page, context or browser")
}
