package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig is the billsctl configuration file.
type FileConfig struct {
	// DBPath is the SQLite database shared with the web server.
	DBPath string `toml:"db_path"`
	// Currency is the symbol printed in front of amounts.
	Currency string `toml:"currency"`
}

// DefaultFileConfig returns the defaults used when no file exists. The
// database path follows SQLITE_DB_PATH so the CLI and the server agree.
func DefaultFileConfig() FileConfig {
	db := os.Getenv("SQLITE_DB_PATH")
	if db == "" {
		db = "./data/bills.db"
	}
	return FileConfig{DBPath: db, Currency: "$"}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bills")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bills")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LoadFileConfig reads path, returning defaults if it doesn't exist.
// Keys missing from the file keep their defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveFileConfig writes cfg to path, creating the directory.
func SaveFileConfig(path string, cfg FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
