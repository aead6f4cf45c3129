// Package archive moves data directories out of the way so the next run
// starts with a fresh store.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveDir moves dir into a sibling "archive" directory with a timestamp
// suffix and returns the new path. The memory directory "data/memory"
// becomes "data/archive/memory-20250102-150405".
func ArchiveDir(dir string) (string, error) {
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}

	parentDir := filepath.Dir(dir)
	archiveDir := filepath.Join(parentDir, "archive")

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(dir)
	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, timestamp))

	// Same second as an earlier archive
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, timestamp))
	}

	if err := os.Rename(dir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	return archivePath, nil
}
