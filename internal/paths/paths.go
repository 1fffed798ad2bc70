// Package paths resolves configuration and data directory locations for the
// dblite inspector CLI. It is not part of the core library contract: the
// Database/Transaction API owns no files or directories of its own.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".dblite"
	DefaultDataDirName   = ".dblite-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DBLITE_CONFIG_DIR"
	EnvDataDir   = "DBLITE_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/dblite (fallback ~/.config/dblite)
// macOS:   ~/Library/Application Support/dblite
// Windows: %APPDATA%/dblite
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "dblite"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "dblite"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "dblite"), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/dblite (fallback ~/.local/share/dblite)
// macOS:   ~/Library/Application Support/dblite
// Windows: %APPDATA%/dblite
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "dblite"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "dblite"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "dblite"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > DBLITE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the root directory under which named connection
// profiles' embedded database files live, following the precedence chain:
// flag > configYAMLValue > DBLITE_DATA_DIR env > DefaultDataDirName under the
// current working directory. Unlike a
// single fixed store, this directory holds one file per profile (see
// ProfileDatabasePath) since a dblite connection can address either of two
// registered engines rather than one fixed backend.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ProfileDatabasePath returns the default embedded SQLite file path for a
// named connection profile: "<dataDir>/<profile>.db". Used when a profile's
// config.yaml entry omits an explicit descriptor, so a named profile
// persists to a stable per-profile file under the resolved data directory
// instead of always falling back to an in-memory database.
func ProfileDatabasePath(dataDir, profile string) string {
	return filepath.Join(dataDir, profile+".db")
}
