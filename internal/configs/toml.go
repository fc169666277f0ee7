package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SaveTOML saves a struct to a TOML file readable only by the owner.
// The file is written to a temporary sibling and renamed into place.
func SaveTOML(filePath string, data interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := toml.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, filePath)
}

// LoadTOML loads a TOML file into a struct and returns the keys it did not recognise.
func LoadTOML(filePath string, data interface{}) ([]string, error) {
	md, err := toml.DecodeFile(filePath, data)
	if err != nil {
		return nil, err
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}
