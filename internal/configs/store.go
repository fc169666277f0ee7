package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
)

const (
	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "SEALNOTE_CONFIG_DIR"

	SettingsFileName = "settings.toml"
	AuditFileName    = "audit.jsonl"
)

// ConfigDir returns override if set, else $SEALNOTE_CONFIG_DIR, else the
// sealnote directory under the user's config directory.
func ConfigDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting config directory: %w", err)
	}
	return filepath.Join(configDir, "sealnote"), nil
}

// FileStore persists Settings as settings.toml inside Dir.
type FileStore struct {
	Dir string
	Log logger.Logger
}

func (f FileStore) Path() string {
	return filepath.Join(f.Dir, SettingsFileName)
}

// Load reads the settings file over the defaults. A missing file yields defaults.
func (f FileStore) Load() (*Settings, error) {
	settings := DefaultSettings()

	unknown, err := LoadTOML(f.Path(), settings)
	if errors.Is(err, fs.ErrNotExist) {
		f.Log.Debugf("No settings at %s, using defaults", f.Path())
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load %s: %w", kerrors.ErrInvalidSettings, f.Path(), err)
	}
	for _, key := range unknown {
		f.Log.Warnf("Ignoring unknown setting %q in %s", key, f.Path())
	}
	if settings.Keys == nil {
		settings.Keys = DefaultSettings().Keys
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	f.Log.Debugf("Loaded %d keys from %s", len(settings.Keys), f.Path())
	return settings, nil
}

func (f FileStore) Save(s *Settings) error {
	if err := SaveTOML(f.Path(), s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	f.Log.Debugf("Saved %d keys to %s", len(s.Keys), f.Path())
	return nil
}

// MemoryStore keeps Settings in memory. SaveErr, when set, fails every Save.
type MemoryStore struct {
	mu       sync.Mutex
	settings *Settings
	saves    int

	SaveErr error
}

func NewMemoryStore(s *Settings) *MemoryStore {
	if s == nil {
		s = DefaultSettings()
	}
	return &MemoryStore{settings: s.Clone()}
}

func (m *MemoryStore) Load() (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Clone(), nil
}

func (m *MemoryStore) Save(s *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.settings = s.Clone()
	m.saves++
	return nil
}

// Saves reports how many Save calls succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
