package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oetools/oequery/pkg/browser"
	"github.com/oetools/oequery/pkg/session"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not authenticated", session.ErrNotAuthenticated, exitNotAuthenticated},
		{"wrapped not authenticated", fmt.Errorf("context: %w", session.ErrNotAuthenticated), exitNotAuthenticated},
		{"response timeout", &browser.ResponseTimeoutError{Waited: 2 * time.Minute}, exitTimeout},
		{"element not found", &browser.ElementNotFoundError{Target: "questionInput"}, exitElementNotFound},
		{"browser launch", &session.BrowserLaunchError{Op: "launch", Err: errors.New("no chromium")}, exitBrowserLaunch},
		{"generic", errors.New("boom"), exitError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCodeFor(tc.err))
		})
	}
}
