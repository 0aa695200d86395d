// Package config centralizes the settings for the OpenEvidence client:
// target URLs, the private data directory holding persisted session state,
// browser launch parameters, and the timeouts applied to each kind of wait.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// BaseURL is the application root; the chat interface lives on the
	// main page.
	BaseURL = "https://www.openevidence.com"

	// LoginURL is the sign-in entry point (Auth0-hosted).
	LoginURL = "https://www.openevidence.com/api/auth/login"

	// SourceTag is stamped on every query result.
	SourceTag = "OpenEvidence"
)

// Default timeouts. Navigation, element location, and response completion
// are bounded independently; exceeding one fails only that query.
const (
	DefaultPageLoadTimeout = 30 * time.Second
	DefaultElementTimeout  = 10 * time.Second
	DefaultQueryTimeout    = 2 * time.Minute
)

// Browser fingerprint settings. Kept constant across runs so the persisted
// session keeps matching the profile that created it.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	DefaultLocale   = "en-US"
	DefaultTimezone = "America/New_York"
)

// envDataDir overrides the default data directory when set.
const envDataDir = "OEQUERY_DATA_DIR"

// Config holds the resolved runtime settings for one invocation.
type Config struct {
	BaseURL  string
	LoginURL string

	// DataDir is the private directory holding the serialized session and
	// the browser profile. Created with owner-only permissions.
	DataDir string

	PageLoadTimeout time.Duration
	ElementTimeout  time.Duration
	QueryTimeout    time.Duration

	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	Locale         string
	Timezone       string
}

// Default returns a Config with the data directory resolved from
// OEQUERY_DATA_DIR or ~/.oequery.
func Default() (*Config, error) {
	dir := os.Getenv(envDataDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".oequery")
	}

	return &Config{
		BaseURL:         BaseURL,
		LoginURL:        LoginURL,
		DataDir:         dir,
		PageLoadTimeout: DefaultPageLoadTimeout,
		ElementTimeout:  DefaultElementTimeout,
		QueryTimeout:    DefaultQueryTimeout,
		ViewportWidth:   DefaultViewportWidth,
		ViewportHeight:  DefaultViewportHeight,
		UserAgent:       DefaultUserAgent,
		Locale:          DefaultLocale,
		Timezone:        DefaultTimezone,
	}, nil
}

// StatePath is the serialized browser storage state (cookies, origins).
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.json")
}

// AuthInfoPath is the session metadata sidecar.
func (c *Config) AuthInfoPath() string {
	return filepath.Join(c.DataDir, "auth.json")
}

// ProfileDir is the persistent browser profile, kept so the site sees a
// consistent fingerprint between the interactive login and later queries.
func (c *Config) ProfileDir() string {
	return filepath.Join(c.DataDir, "browser_profile")
}

// SelectorsPath is the optional selector-registry override file. Editing it
// is how UI drift gets absorbed without a code change.
func (c *Config) SelectorsPath() string {
	return filepath.Join(c.DataDir, "selectors.yaml")
}

// LaunchArgs returns the Chromium flags used for every launch. The
// automation-detection flags must match between setup and query runs or the
// saved session stops validating.
func LaunchArgs() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-features=IsolateOrigins,site-per-process",
		"--no-sandbox",
		"--disable-setuid-sandbox",
	}
}
