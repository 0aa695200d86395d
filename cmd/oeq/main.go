// Command oeq asks OpenEvidence questions from the terminal, reusing a
// persisted sign-in across runs.
//
// Usage:
//
//	oeq auth setup|status|validate|reauth|clear
//	oeq ask --question "..." [--fast|--turbo] [--save-images] [--output-dir DIR] [--show-browser] [--debug]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oetools/oequery/pkg/browser"
	"github.com/oetools/oequery/pkg/session"
)

// Exit codes are part of the command surface; calling scripts branch on
// them.
const (
	exitOK               = 0
	exitError            = 1
	exitNotAuthenticated = 2
	exitTimeout          = 3
	exitElementNotFound  = 4
	exitBrowserLaunch    = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	var (
		launchErr  *session.BrowserLaunchError
		timeoutErr *browser.ResponseTimeoutError
		notFound   *browser.ElementNotFoundError
	)
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return exitNotAuthenticated
	case errors.As(err, &timeoutErr):
		return exitTimeout
	case errors.As(err, &notFound):
		return exitElementNotFound
	case errors.As(err, &launchErr):
		return exitBrowserLaunch
	default:
		return exitError
	}
}
