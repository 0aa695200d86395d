package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIDIsStable(t *testing.T) {
	a := RunID()
	b := RunID()
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
}

func TestNewDebugWritesRunFile(t *testing.T) {
	dir := t.TempDir()

	log := New(true, dir)
	log.Debug("probe entry")
	_ = log.Sync()

	path := filepath.Join(dir, "logs", RunID()+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "probe entry")
	assert.Contains(t, string(data), RunID())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestNewWithoutDebugSkipsFile(t *testing.T) {
	dir := t.TempDir()

	log := New(false, dir)
	log.Warn("console only")

	_, err := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewSurvivesUnwritableDataDir(t *testing.T) {
	dir := t.TempDir()
	// A file where the logs directory should go forces MkdirAll to fail.
	blocked := filepath.Join(dir, "logs")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o600))

	log := New(true, dir)
	log.Debug("still works on the console core")
}
