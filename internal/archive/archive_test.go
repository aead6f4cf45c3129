package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/translore/internal/testutil"
)

func TestArchiveDir(t *testing.T) {
	tmpDir := testutil.CreateTestDirectory(t)
	memoryDir := filepath.Join(tmpDir, "memory")

	testutil.CreateTestFile(t, filepath.Join(memoryDir, "default_user_history.json"), []byte("[]"))
	testutil.CreateTestFile(t, filepath.Join(memoryDir, "nested", "file.txt"), []byte("sub content"))

	archivedPath, err := ArchiveDir(memoryDir)
	if err != nil {
		t.Fatalf("ArchiveDir failed: %v", err)
	}

	testutil.AssertFileNotExists(t, memoryDir)

	if filepath.Dir(archivedPath) != filepath.Join(tmpDir, "archive") {
		t.Errorf("archived into %s, want sibling archive directory", filepath.Dir(archivedPath))
	}

	// memory-YYYYMMDD-HHMMSS
	name := filepath.Base(archivedPath)
	if !strings.HasPrefix(name, "memory-") {
		t.Errorf("Archived directory name doesn't start with 'memory-': %s", name)
	}
	if parts := strings.Split(name, "-"); len(parts) != 3 || len(parts[1]) != 8 || len(parts[2]) != 6 {
		t.Errorf("Invalid archive name format: %s", name)
	}

	testutil.AssertFileContains(t, filepath.Join(archivedPath, "default_user_history.json"), "[]")
	testutil.AssertFileContains(t, filepath.Join(archivedPath, "nested", "file.txt"), "sub content")

	// Other data directories are left alone.
	testutil.AssertFileExists(t, filepath.Join(tmpDir, "vector_db"))
}

func TestArchiveDir_Twice(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "memory")

	var paths []string
	for i := 0; i < 2; i++ {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		p, err := ArchiveDir(dir)
		if err != nil {
			t.Fatalf("ArchiveDir #%d failed: %v", i+1, err)
		}
		paths = append(paths, p)
	}

	if paths[0] == paths[1] {
		t.Errorf("both archives landed at %s", paths[0])
	}
	entries, err := os.ReadDir(filepath.Join(tmpDir, "archive"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 archives, got %d", len(entries))
	}
}

func TestArchiveDir_NotExist(t *testing.T) {
	if _, err := ArchiveDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for non-existent directory")
	}
}

func TestArchiveDir_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.json")
	testutil.CreateTestFile(t, f, []byte("{}"))
	if _, err := ArchiveDir(f); err == nil {
		t.Error("Expected error when archiving a file")
	}
}
