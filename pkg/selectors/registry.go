// Package selectors maps logical UI targets to concrete lookup expressions.
//
// The live page's markup is not contractually stable, so every target carries
// an ordered fallback chain of candidate selectors tried in priority order.
// When the site drifts, the registry is the only thing that needs updating:
// either here or, without a rebuild, through the selectors.yaml override file
// in the data directory.
package selectors

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Target names a logical UI element the driver needs to find.
type Target string

const (
	// LoginButton is the entry-point control on the unauthenticated page.
	LoginButton Target = "loginButton"

	// AppleLogin is the third-party sign-in control on the Auth0 page.
	AppleLogin Target = "appleLogin"

	// LoggedInIndicator is any element that only renders for an
	// authenticated user.
	LoggedInIndicator Target = "loggedInIndicator"

	// QuestionInput is the question-entry surface.
	QuestionInput Target = "questionInput"

	// SubmitButton sends the typed question.
	SubmitButton Target = "submitButton"

	// ResponseContainer holds the rendered answer.
	ResponseContainer Target = "responseContainer"

	// LoadingIndicator is visible while the answer is still generating.
	LoadingIndicator Target = "loadingIndicator"

	// PopupDismiss matches buttons that close consent dialogs (HIPAA,
	// cookies) which can cover the chat surface at any point.
	PopupDismiss Target = "popupDismiss"
)

// Version of the embedded default table. Bumped whenever the defaults are
// updated to chase UI drift.
const Version = 2

// ExtractionRules drive the Response Extractor. Unlike the page targets,
// these are applied to a detached HTML subtree, so they are structural
// hints rather than live-page selectors.
type ExtractionRules struct {
	// CitationClasses marks an element as a citation marker when a class
	// attribute contains one of these substrings.
	CitationClasses []string `yaml:"citationClasses"`

	// ExcludeTags are removed from the answer wholesale.
	ExcludeTags []string `yaml:"excludeTags"`

	// ExcludeClasses removes UI chrome (toolbars, vote buttons,
	// disclaimers) by class substring.
	ExcludeClasses []string `yaml:"excludeClasses"`

	// ChromeTextPatterns are glob patterns; a text block matching one is
	// dropped from the answer (consent banners restate themselves inside
	// the response container).
	ChromeTextPatterns []string `yaml:"chromeTextPatterns"`
}

// Registry is the versioned table of fallback chains plus extraction rules.
type Registry struct {
	version  int
	targets  map[Target][]string
	rules    ExtractionRules
	compiled []glob.Glob
}

// Default returns the embedded registry.
func Default() *Registry {
	r := &Registry{
		version: Version,
		targets: map[Target][]string{
			LoginButton: {
				`button:has-text("Log In")`,
				`a:has-text("Log In")`,
				`[data-testid="login-button"]`,
				`.MuiButton-root:has-text("Log In")`,
			},
			AppleLogin: {
				`button:has-text("Continue with Apple")`,
				`button:has-text("Sign in with Apple")`,
				`[data-provider="apple"]`,
				`a:has-text("Apple")`,
			},
			LoggedInIndicator: {
				`[data-testid="user-menu"]`,
				`[data-testid="avatar"]`,
				`button:has-text("Log Out")`,
				`a:has-text("Log Out")`,
				`.user-avatar`,
				`[class*="profile"]`,
			},
			QuestionInput: {
				`textarea[placeholder*="Ask"]`,
				`textarea[placeholder*="question"]`,
				`input[placeholder*="Ask"]`,
				`.MuiOutlinedInput-input`,
				`.MuiInputBase-input`,
				`[data-testid="chat-input"]`,
				`textarea`,
			},
			SubmitButton: {
				`button[type="submit"]`,
				`button:has-text("Send")`,
				`button[aria-label="Send"]`,
				`.MuiButton-contained`,
				`[data-testid="send-button"]`,
				`button:has(svg[data-testid="SendIcon"])`,
			},
			ResponseContainer: {
				`[data-testid="response"]`,
				`[data-testid="answer"]`,
				`[data-testid="assistant-message"]`,
				`article`,
				`main [class*="content"]`,
			},
			LoadingIndicator: {
				`[data-testid="loading"]`,
				`.MuiCircularProgress-root`,
				`[class*="loading"]`,
				`[class*="typing"]`,
				`[class*="thinking"]`,
			},
			PopupDismiss: {
				`button:has-text("OK")`,
				`button:has-text("Accept")`,
				`button:has-text("I Agree")`,
				`button:has-text("Got it")`,
				`button:has-text("Dismiss")`,
				`[aria-label="Close"]`,
				`[data-testid="close-button"]`,
				`[role="dialog"] button`,
			},
		},
		rules: ExtractionRules{
			CitationClasses: []string{"citation", "reference"},
			ExcludeTags:     []string{"button", "nav", "footer", "form"},
			ExcludeClasses:  []string{"toolbar", "feedback", "disclaimer", "vote", "share"},
			ChromeTextPatterns: []string{
				"*protected health information*",
				"*cookie*",
			},
		},
	}
	r.compilePatterns()
	return r
}

// Candidates returns the fallback chain for a target, in priority order.
// The returned slice must not be mutated.
func (r *Registry) Candidates(t Target) []string {
	return r.targets[t]
}

// Rules returns the extraction rules.
func (r *Registry) Rules() ExtractionRules {
	return r.rules
}

// Patterns returns the compiled chrome text globs.
func (r *Registry) Patterns() []glob.Glob {
	return r.compiled
}

// overrideFile is the YAML shape of a registry override.
type overrideFile struct {
	Version    int                 `yaml:"version"`
	Targets    map[string][]string `yaml:"targets"`
	Extraction *ExtractionRules    `yaml:"extraction"`
}

// MergeFile overlays an override file onto the registry. Targets present in
// the file replace their default chains entirely; absent targets keep the
// defaults. A missing file is not an error.
func (r *Registry) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read selector overrides: %w", err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse selector overrides %s: %w", path, err)
	}

	for name, chain := range f.Targets {
		if len(chain) == 0 {
			continue
		}
		r.targets[Target(name)] = chain
	}
	if f.Extraction != nil {
		r.rules = *f.Extraction
	}
	if f.Version > 0 {
		r.version = f.Version
	}
	r.compilePatterns()
	return nil
}

// MatchesChrome reports whether a text block is UI chrome rather than
// answer content.
func (r *Registry) MatchesChrome(text string) bool {
	for _, g := range r.compiled {
		if g.Match(lower(text)) {
			return true
		}
	}
	return false
}

func (r *Registry) compilePatterns() {
	r.compiled = r.compiled[:0]
	for _, p := range r.rules.ChromeTextPatterns {
		g, err := glob.Compile(lower(p))
		if err != nil {
			// A bad override pattern should not take the whole run
			// down; it just stops matching.
			continue
		}
		r.compiled = append(r.compiled, g)
	}
}

func lower(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
