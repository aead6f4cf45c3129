package culture

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/translore/internal/testutil"
)

func TestIndexPath(t *testing.T) {
	got := IndexPath("/data/vector_db", "Tamil")
	want := filepath.Join("/data/vector_db", "Tamil_cultural_context.db")
	if got != want {
		t.Errorf("IndexPath() = %q, want %q", got, want)
	}
}

func TestCreateIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "Tamil_cultural_context.db")

	chunks := []string{"north", "east", "north-east"}
	vectors := [][]float32{{0, 1}, {1, 0}, {0.7, 0.7}}

	ix, err := CreateIndex(ctx, path, chunks, vectors, "https://example.org/wiki/Culture")
	if err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}
	defer ix.Close()

	if !IndexExists(path) {
		t.Fatal("index file was not created")
	}
	if IndexExists(path + ".tmp") {
		t.Error("temporary index file left behind")
	}
	testutil.AssertFileExists(t, vectorsPath(path))

	n, err := ix.Len(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Len() = %d, %v; want 3", n, err)
	}

	src, err := ix.Source(ctx)
	if err != nil || src != "https://example.org/wiki/Culture" {
		t.Errorf("Source() = %q, %v", src, err)
	}

	hits, err := ix.Search(ctx, []float32{0, 1}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() returned %d hits, want 2", len(hits))
	}
	if hits[0].Content != "north" || hits[1].Content != "north-east" {
		t.Errorf("Search() order = %q, %q", hits[0].Content, hits[1].Content)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits are not sorted by score")
	}

	if _, err := ix.Search(ctx, []float32{1, 2, 3}, 1); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestCreateIndexMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	_, err := CreateIndex(context.Background(), path, []string{"a", "b"}, [][]float32{{1}}, "")
	if err == nil {
		t.Fatal("expected error for chunk/vector count mismatch")
	}
	if IndexExists(path) {
		t.Error("index should not exist after failed create")
	}
}

func TestOpenIndexMissing(t *testing.T) {
	if _, err := OpenIndex(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error opening missing index")
	}
}

func TestOpenIndexReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "French_cultural_context.db")

	ix, err := CreateIndex(ctx, path, []string{"bread", "cheese"}, [][]float32{{1, 0}, {0, 1}}, "https://example.org/wiki/France")
	if err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}
	ix.Close()

	reopened, err := OpenIndex(path)
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer reopened.Close()

	hits, err := reopened.Search(ctx, []float32{0.1, 0.9}, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].Content != "cheese" || hits[0].Position != 1 {
		t.Errorf("Search() after reopen = %+v", hits)
	}
	if math.Abs(float64(hits[1].Score)-0.1/math.Sqrt(0.82)) > 1e-4 {
		t.Errorf("score = %v, want cosine similarity", hits[1].Score)
	}
}

func TestCreateIndexReplacesStaleVectors(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Tamil_cultural_context.db")

	ix, err := CreateIndex(ctx, path, []string{"old"}, [][]float32{{1, 0}}, "")
	if err != nil {
		t.Fatal(err)
	}
	ix.Close()
	// Drop the manifest as a crash between the two renames would.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	ix, err = CreateIndex(ctx, path, []string{"new", "newer"}, [][]float32{{1, 0}, {0, 1}}, "")
	if err != nil {
		t.Fatalf("CreateIndex() over stale vectors error = %v", err)
	}
	defer ix.Close()

	if n, _ := ix.Len(ctx); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
	testutil.AssertFileNotExists(t, vectorsPath(path)+".tmp")
}

func TestOpenIndexWithoutVectors(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "German_cultural_context.db")
	ix, err := CreateIndex(ctx, path, []string{"a"}, [][]float32{{1}}, "")
	if err != nil {
		t.Fatal(err)
	}
	ix.Close()

	if err := os.RemoveAll(vectorsPath(path)); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenIndex(path); err == nil {
		t.Error("expected error opening index without vectors")
	}
}
