package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
)

func TestConfigDir(t *testing.T) {
	t.Setenv(ConfigDirEnv, "/from/env")

	dir, err := ConfigDir("/from/flag")
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if dir != "/from/flag" {
		t.Errorf("Expected flag override, got %q", dir)
	}

	dir, err = ConfigDir("")
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if dir != "/from/env" {
		t.Errorf("Expected env override, got %q", dir)
	}

	t.Setenv(ConfigDirEnv, "")
	dir, err = ConfigDir("")
	if err != nil {
		t.Skipf("No user config dir available: %v", err)
	}
	if filepath.Base(dir) != "sealnote" {
		t.Errorf("Expected default dir to end in sealnote, got %q", dir)
	}
}

func TestFileStore_LoadMissingReturnsDefaults(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}

	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.KeyIDProperty != DefaultKeyIDProperty || s.IdleTimeout != DefaultIdleTimeout || len(s.Keys) != 0 {
		t.Errorf("Expected defaults, got %+v", s)
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := FileStore{Dir: filepath.Join(t.TempDir(), "nested")}

	s := DefaultSettings()
	s.KeyIDProperty = "secret_key"
	s.IdleTimeout = 0
	s.Keys["id-one"] = keys.Record{ID: "id-one", SealedKey: "-----BEGIN X-----\nabc\n-----END X-----\n", Name: "work", Hint: "the usual"}
	s.Keys["id-two"] = keys.Record{ID: "id-two", SealedKey: "sealed", IdleTimeout: intPtr(0)}

	if err := store.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.KeyIDProperty != "secret_key" {
		t.Errorf("Expected property secret_key, got %q", loaded.KeyIDProperty)
	}
	if loaded.IdleTimeout != 0 {
		t.Errorf("Expected idle timeout 0, got %d", loaded.IdleTimeout)
	}
	if len(loaded.Keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(loaded.Keys))
	}

	one := loaded.Keys["id-one"]
	if one.Name != "work" || one.Hint != "the usual" || one.SealedKey != s.Keys["id-one"].SealedKey {
		t.Errorf("Key id-one did not round trip: %+v", one)
	}
	if one.IdleTimeout != nil {
		t.Errorf("Expected no idle timeout override, got %d", *one.IdleTimeout)
	}

	two := loaded.Keys["id-two"]
	if two.IdleTimeout == nil || *two.IdleTimeout != 0 {
		t.Errorf("Expected explicit idle timeout 0 to survive, got %v", two.IdleTimeout)
	}
}

func TestFileStore_LoadKeepsDefaultsForAbsentFields(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("idle_timeout = 15\n"), 0600); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	s, err := FileStore{Dir: dir}.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.IdleTimeout != 15 {
		t.Errorf("Expected idle timeout 15, got %d", s.IdleTimeout)
	}
	if s.KeyIDProperty != DefaultKeyIDProperty {
		t.Errorf("Expected default property, got %q", s.KeyIDProperty)
	}
	if s.Keys == nil {
		t.Error("Expected non-nil key map")
	}
}

func TestFileStore_LoadInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"Malformed", "idle_timeout = = 3\n"},
		{"NegativeTimeout", "idle_timeout = -1\n"},
		{"WrongType", "idle_timeout = \"soon\"\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(tc.content), 0600); err != nil {
				t.Fatalf("Failed to write settings: %v", err)
			}

			_, err := FileStore{Dir: dir}.Load()
			if !errors.Is(err, kerrors.ErrInvalidSettings) {
				t.Fatalf("Expected ErrInvalidSettings, got: %v", err)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(nil)

	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s.IdleTimeout = 5
	s.Keys["abc"] = keys.Record{ID: "abc", SealedKey: "sealed"}

	reloaded, _ := store.Load()
	if reloaded.IdleTimeout != DefaultIdleTimeout || len(reloaded.Keys) != 0 {
		t.Fatal("Load should return an independent copy")
	}

	if err := store.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reloaded, _ = store.Load()
	if reloaded.IdleTimeout != 5 || len(reloaded.Keys) != 1 {
		t.Errorf("Expected saved settings, got %+v", reloaded)
	}
	if store.Saves() != 1 {
		t.Errorf("Expected 1 save, got %d", store.Saves())
	}

	store.SaveErr = errors.New("disk full")
	if err := store.Save(s); err == nil {
		t.Error("Expected SaveErr to be returned")
	}
	if store.Saves() != 1 {
		t.Errorf("Failed save should not count, got %d", store.Saves())
	}
}
