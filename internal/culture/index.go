package culture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/philippgille/chromem-go"

	"codeberg.org/snonux/translore/internal"
)

// An index is two siblings: the sqlite manifest at the index path holding
// the metadata, and a chromem-go directory next to it holding the chunk
// documents and vectors. The manifest is renamed into place last, so its
// presence marks a complete index.
const manifestSchema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

const (
	collectionName   = "chunks"
	vectorsSuffix    = ".vectors"
	addConcurrency   = 4
	metaKeyPosition  = "position"
	metaKeySource    = "source"
	metaKeyDimension = "dimensions"
)

var errNoEmbeddingFunc = errors.New("index: documents must carry their embedding")

// noEmbedding keeps chromem-go from embedding text on its own.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// Hit is one search result.
type Hit struct {
	Position int
	Content  string
	Score    float32
}

// Index is a persisted set of chunk embeddings for one language.
type Index struct {
	db   *sql.DB
	coll *chromem.Collection
	dims int
	path string
}

// IndexPath returns where the index for language lives under dir.
func IndexPath(dir, language string) string {
	return filepath.Join(dir, internal.SanitizeFilename(language)+"_cultural_context.db")
}

func vectorsPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + vectorsSuffix
}

// IndexExists reports whether a complete index is present at path.
func IndexExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateIndex writes chunks and their vectors to a new index at path. Both
// parts are built under temporary names and renamed into place, the
// manifest last, so a crash never leaves a half-written index behind.
func CreateIndex(ctx context.Context, path string, chunks []string, vectors [][]float32, source string) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dims || dims == 0 {
			return nil, fmt.Errorf("index: vector %d has %d dimensions, want %d", i, len(v), dims)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := path + ".tmp"
	tmpVectors := vectorsPath(path) + ".tmp"
	cleanup := func() {
		_ = os.Remove(tmp)
		_ = os.RemoveAll(tmpVectors)
	}
	cleanup()

	if err := writeVectors(ctx, tmpVectors, chunks, vectors); err != nil {
		cleanup()
		return nil, err
	}
	if err := writeManifest(ctx, tmp, len(chunks), dims, source); err != nil {
		cleanup()
		return nil, err
	}

	// A vectors directory without a manifest is left over from a crash.
	if err := os.RemoveAll(vectorsPath(path)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to remove stale vectors: %w", err)
	}
	if err := os.Rename(tmpVectors, vectorsPath(path)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to move vectors into place: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to move index into place: %w", err)
	}
	return OpenIndex(path)
}

func writeVectors(ctx context.Context, dir string, chunks []string, vectors [][]float32) error {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}
	coll, err := db.CreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Metadata:  map[string]string{metaKeyPosition: strconv.Itoa(i)},
			Embedding: vectors[i],
			Content:   chunk,
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := coll.AddDocuments(ctx, docs, addConcurrency); err != nil {
		return fmt.Errorf("failed to add chunks: %w", err)
	}
	return nil
}

func writeManifest(ctx context.Context, path string, chunks, dims int, source string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, manifestSchema); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	meta := map[string]string{
		metaKeySource:    source,
		metaKeyDimension: strconv.Itoa(dims),
		"chunks":         strconv.Itoa(chunks),
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to write index metadata: %w", err)
		}
	}
	return tx.Commit()
}

// OpenIndex opens an existing index.
func OpenIndex(path string) (*Index, error) {
	if !IndexExists(path) {
		return nil, fmt.Errorf("index does not exist: %s", path)
	}
	if _, err := os.Stat(vectorsPath(path)); err != nil {
		return nil, fmt.Errorf("index vectors missing: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	ix := &Index{db: db, path: path}

	dims, err := ix.meta(context.Background(), metaKeyDimension)
	if err != nil {
		db.Close()
		return nil, err
	}
	ix.dims, _ = strconv.Atoi(dims)

	vdb, err := chromem.NewPersistentDB(vectorsPath(path), false)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	ix.coll = vdb.GetCollection(collectionName, noEmbedding)
	if ix.coll == nil {
		db.Close()
		return nil, fmt.Errorf("index %s has no %q collection", path, collectionName)
	}
	return ix, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) meta(ctx context.Context, key string) (string, error) {
	var value string
	err := ix.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read index metadata: %w", err)
	}
	return value, nil
}

// Source returns the article URL the index was built from.
func (ix *Index) Source(ctx context.Context) (string, error) {
	return ix.meta(ctx, metaKeySource)
}

// Len returns the number of stored chunks.
func (ix *Index) Len(ctx context.Context) (int, error) {
	return ix.coll.Count(), nil
}

// Search returns the k chunks with the highest cosine similarity to query,
// best first. A k of zero or less returns every chunk.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("index: query has %d dimensions, index has %d", len(query), ix.dims)
	}
	n := ix.coll.Count()
	if k <= 0 || k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := ix.coll.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		pos, err := strconv.Atoi(r.Metadata[metaKeyPosition])
		if err != nil {
			return nil, fmt.Errorf("index: chunk %s has no position", r.ID)
		}
		hits = append(hits, Hit{Position: pos, Content: r.Content, Score: r.Similarity})
	}
	return hits, nil
}
