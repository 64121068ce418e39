package paths

import (
	"os"
	"path/filepath"
)

// AppDir is the directory name under the user config dir
const AppDir = "gadgeto"

// Store file names per driver
const (
	BoltFile   = "session.db"
	SQLiteFile = "session.sqlite"
)

// DataDir returns the per-user data directory, falling back to the working
// directory when no home is available
func DataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "." + AppDir
	}
	return filepath.Join(base, AppDir)
}

// StoreFile returns the default store file for driver
func StoreFile(driver string) string {
	if driver == "sqlite" {
		return filepath.Join(DataDir(), SQLiteFile)
	}
	return filepath.Join(DataDir(), BoltFile)
}
