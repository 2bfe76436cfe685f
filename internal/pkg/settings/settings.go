// Package settings persists sender configuration as JSON, plus a periodic
// recovery snapshot for resuming after power loss. A Store is constructed
// explicitly and passed to whoever needs it; there is no process-wide
// instance.
package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fluidlink/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	settingsFile = "settings.json"
	recoveryFile = "recovery.json"
)

// Settings is everything the sender persists between runs.
type Settings struct {
	Host          string  `json:"host" validate:"required"`
	Port          uint16  `json:"port" validate:"required"`
	AutoReconnect bool    `json:"auto_reconnect"`
	JogFeed       float64 `json:"jog_feed" validate:"gt=0"`
	JogStep       float64 `json:"jog_step" validate:"gt=0"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		Host:          "127.0.0.1",
		Port:          23,
		AutoReconnect: true,
		JogFeed:       1000,
		JogStep:       1,
	}
}

// Store is a thread-safe settings container bound to a config directory.
type Store struct {
	dir string

	mu  sync.Mutex
	cur Settings
}

// Open loads the store from dir, creating the directory if needed. A missing
// or unreadable settings file falls back to defaults; a file holding invalid
// values is an error.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create config dir %s failed", dir)
	}
	s := &Store{dir: dir, cur: Default()}
	raw, err := os.ReadFile(s.path(settingsFile))
	if err != nil {
		return s, nil
	}
	var loaded Settings
	if err := json.Unmarshal(raw, &loaded); err != nil {
		logger.WithError(err).Warn("settings file unreadable, using defaults")
		return s, nil
	}
	if err := validate.Validate().Struct(loaded); err != nil {
		return nil, errors.Wrap(err, "validate settings failed")
	}
	s.cur = loaded
	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update applies fn to the settings, validates the result and writes it to
// the settings file.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	fn(&next)
	if err := validate.Validate().Struct(next); err != nil {
		return errors.Wrap(err, "validate settings failed")
	}
	s.cur = next
	return s.saveLocked()
}

// Save writes the current settings to the settings file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	raw, err := json.MarshalIndent(s.cur, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal settings failed")
	}
	return errors.Wrap(os.WriteFile(s.path(settingsFile), raw, 0o644), "write settings failed")
}

// SaveRecovery writes the fast recovery snapshot.
func (s *Store) SaveRecovery() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(s.cur)
	if err != nil {
		return errors.Wrap(err, "marshal recovery failed")
	}
	return errors.Wrap(os.WriteFile(s.path(recoveryFile), raw, 0o644), "write recovery failed")
}

// AutoSave writes the recovery snapshot every interval until ctx is
// cancelled, then saves the settings file one last time. Run it on its own
// goroutine.
func (s *Store) AutoSave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := s.Save(); err != nil {
				logger.WithError(err).Warn("final settings save failed")
			}
			return
		case <-ticker.C:
			if err := s.SaveRecovery(); err != nil {
				logger.WithError(err).Warn("recovery save failed")
			}
		}
	}
}
