package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the pixelrelay data directory.
// - DATA_DIR when set
// - Windows: %APPDATA%\pixelrelay
// - Other OS: ~/.pixelrelay
func DataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "pixelrelay")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".pixelrelay"
	}
	return filepath.Join(home, ".pixelrelay")
}

// DBPath returns the default path to the SQLite log database.
func DBPath() string {
	return filepath.Join(DataDir(), "pixelrelay.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
