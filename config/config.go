// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultStorageFile = "out/tasks.json"
	DefaultListenAddr  = ":8080"
)

// Config holds the full configuration for task-app.
type Config struct {
	// StorageFile is the JSON file holding the task collection.
	StorageFile string `toml:"storage_file"`

	// ListenAddr is the address the API server binds to.
	ListenAddr string `toml:"listen_addr"`

	// LogText switches logs from JSON to plain text.
	LogText bool `toml:"log_text"`

	// ActorStore serializes storage access through an in-process actor
	// instead of locking the file per operation.
	ActorStore bool `toml:"actor_store"`
}

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		StorageFile: filepath.FromSlash(DefaultStorageFile),
		ListenAddr:  DefaultListenAddr,
	}
}

// Load reads a TOML config file and applies defaults for unset fields.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	if cfg.StorageFile == "" {
		cfg.StorageFile = filepath.FromSlash(DefaultStorageFile)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	return cfg, nil
}
