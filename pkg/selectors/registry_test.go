package selectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultChains(t *testing.T) {
	r := Default()

	targets := []Target{
		LoginButton, AppleLogin, LoggedInIndicator, QuestionInput,
		SubmitButton, ResponseContainer, LoadingIndicator, PopupDismiss,
	}
	for _, target := range targets {
		assert.NotEmpty(t, r.Candidates(target), "target %s has no fallback chain", target)
	}

	// The chain is ordered most-specific first; the bare textarea catch-all
	// must stay last or it shadows everything.
	chain := r.Candidates(QuestionInput)
	assert.Equal(t, `textarea[placeholder*="Ask"]`, chain[0])
	assert.Equal(t, `textarea`, chain[len(chain)-1])
}

func TestMergeFileReplacesTargetChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 3
targets:
  questionInput:
    - "#ask-box"
extraction:
  citationClasses: ["cite"]
  chromeTextPatterns: ["*banner*"]
`), 0o644))

	r := Default()
	require.NoError(t, r.MergeFile(path))

	assert.Equal(t, []string{"#ask-box"}, r.Candidates(QuestionInput))
	// Targets absent from the override keep their defaults.
	assert.NotEmpty(t, r.Candidates(SubmitButton))

	assert.Equal(t, []string{"cite"}, r.Rules().CitationClasses)
	assert.True(t, r.MatchesChrome("Big BANNER text"))
	assert.False(t, r.MatchesChrome("We use cookies"), "default patterns replaced by override")
}

func TestMergeFileMissingIsNotAnError(t *testing.T) {
	r := Default()
	require.NoError(t, r.MergeFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.NotEmpty(t, r.Candidates(QuestionInput))
}

func TestMergeFileRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets: [not a map"), 0o644))

	r := Default()
	assert.Error(t, r.MergeFile(path))
}

func TestMatchesChromeIsCaseInsensitive(t *testing.T) {
	r := Default()
	assert.True(t, r.MatchesChrome("This site uses COOKIES to improve your experience"))
	assert.True(t, r.MatchesChrome("Do not enter Protected Health Information here"))
	assert.False(t, r.MatchesChrome("Aspirin reduces cardiovascular risk"))
}

func TestMatchesChromeSkipsBadOverridePattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extraction:
  chromeTextPatterns: ["[unterminated", "*cookie*"]
`), 0o644))

	r := Default()
	require.NoError(t, r.MergeFile(path))
	assert.True(t, r.MatchesChrome("cookie notice"))
}
