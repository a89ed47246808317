package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalDir is the directory holding the local tracker database
const LocalDir = ".triage"

// DefaultDatabaseName is the file created by `triage teams add` when no
// database exists yet
const DefaultDatabaseName = "triage.db"

// DiscoverDatabase locates the local tracker database.
//
// TRIAGE_DB_PATH wins when set, including special values like ":memory:".
// Otherwise .triage/*.db is looked up in the current directory only;
// parent directories are never searched.
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("TRIAGE_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return discoverDatabaseInDir(dir)
}

// DefaultDatabasePath returns where a new local database goes for dir
func DefaultDatabasePath(dir string) string {
	return filepath.Join(dir, LocalDir, DefaultDatabaseName)
}

// discoverDatabaseInDir checks for .triage/*.db in dir. The first entry in
// directory order wins.
func discoverDatabaseInDir(dir string) (string, error) {
	localDir := filepath.Join(dir, LocalDir)

	if info, err := os.Stat(localDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(localDir)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", localDir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".db") {
				absPath, err := filepath.Abs(filepath.Join(localDir, entry.Name()))
				if err != nil {
					return "", fmt.Errorf("failed to get absolute path: %w", err)
				}
				return absPath, nil
			}
		}
	}

	return "", fmt.Errorf(
		"no %s/*.db found in %s\n"+
			"  Run 'triage teams add KEY NAME' to create a local tracker\n"+
			"  Or set sqlite_path in triage.yaml",
		LocalDir, dir)
}
