// Package session owns authentication state: the Store persists it, the
// Manager drives the browser-side lifecycle around it (interactive setup,
// validation, acquiring authenticated contexts).
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/oetools/oequery/pkg/config"
)

// Status describes what we currently believe about a stored session.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusInvalid Status = "invalid"
)

// Metadata is the sidecar record kept next to the serialized browser state.
type Metadata struct {
	Provider        string    `json:"provider"`
	CreatedAt       time.Time `json:"created_at"`
	LastValidatedAt time.Time `json:"last_validated_at,omitempty"`
	Status          Status    `json:"status"`
}

// AuthSession is the persisted proof of a completed sign-in: the opaque
// browser storage state (cookies, origins) plus our metadata. It is only
// ever mutated through explicit setup/reauth/clear operations.
type AuthSession struct {
	State json.RawMessage
	Meta  Metadata
}

// Store persists AuthSessions under the private data directory. Writes are
// atomic (temp file + rename) so a crash mid-save cannot corrupt the stored
// session, and loads tolerate a file being concurrently replaced by another
// invocation: a malformed read is discarded and reported as absent.
type Store struct {
	cfg *config.Config
	log *zap.Logger
}

// NewStore creates a Store rooted at the config's data directory.
func NewStore(cfg *config.Config, log *zap.Logger) *Store {
	return &Store{cfg: cfg, log: log}
}

// Load returns the stored session, or (nil, nil) when none is present.
func (s *Store) Load() (*AuthSession, error) {
	state, err := os.ReadFile(s.cfg.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	// Structural integrity check before trusting the read: another process
	// may have been mid-replace. Malformed state is treated as absent.
	var probe struct {
		Cookies []json.RawMessage `json:"cookies"`
	}
	if err := json.Unmarshal(state, &probe); err != nil {
		s.log.Warn("discarding malformed session state", zap.Error(err))
		return nil, nil
	}

	sess := &AuthSession{State: state, Meta: Metadata{Status: StatusUnknown}}

	meta, err := os.ReadFile(s.cfg.AuthInfoPath())
	if err == nil {
		var m Metadata
		if err := json.Unmarshal(meta, &m); err != nil {
			s.log.Warn("discarding malformed session metadata", zap.Error(err))
		} else {
			sess.Meta = m
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read session metadata: %w", err)
	}

	return sess, nil
}

// Save atomically persists the session. The data directory is created with
// owner-only permissions; the state files never leave this machine except
// toward the target site itself.
func (s *Store) Save(sess *AuthSession) error {
	if err := os.MkdirAll(s.cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := writeFileAtomic(s.cfg.StatePath(), sess.State); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}

	meta, err := json.MarshalIndent(sess.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}
	if err := writeFileAtomic(s.cfg.AuthInfoPath(), meta); err != nil {
		return fmt.Errorf("failed to save session metadata: %w", err)
	}
	return nil
}

// SetStatus rewrites only the metadata, leaving the state untouched.
func (s *Store) SetStatus(status Status, validatedAt time.Time) error {
	sess, err := s.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotAuthenticated
	}
	sess.Meta.Status = status
	if !validatedAt.IsZero() {
		sess.Meta.LastValidatedAt = validatedAt
	}
	return s.Save(sess)
}

// Clear removes all persisted authentication material, including the
// browser profile. Idempotent.
func (s *Store) Clear() error {
	for _, p := range []string{s.cfg.StatePath(), s.cfg.AuthInfoPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	if err := os.RemoveAll(s.cfg.ProfileDir()); err != nil {
		return fmt.Errorf("failed to remove browser profile: %w", err)
	}
	return nil
}

// writeFileAtomic writes via a temp file in the same directory and renames
// it into place, so readers only ever observe a complete file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
