package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResolvesDataDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envDataDir, dir)

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "state.json"), cfg.StatePath())
	assert.Equal(t, filepath.Join(dir, "auth.json"), cfg.AuthInfoPath())
	assert.Equal(t, filepath.Join(dir, "browser_profile"), cfg.ProfileDir())
	assert.Equal(t, filepath.Join(dir, "selectors.yaml"), cfg.SelectorsPath())
}

func TestLaunchArgsDisableAutomationSignals(t *testing.T) {
	assert.Contains(t, LaunchArgs(), "--disable-blink-features=AutomationControlled")
}
