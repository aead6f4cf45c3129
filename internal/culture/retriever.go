package culture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"codeberg.org/snonux/translore/internal"
	"codeberg.org/snonux/translore/internal/llm"
	"codeberg.org/snonux/translore/internal/logger"
	"codeberg.org/snonux/translore/internal/wiki"
)

// Status classifies the outcome of a retrieval.
type Status int

const (
	StatusOK Status = iota
	StatusAmbiguous
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

const (
	DefaultTopK   = 3
	maxOptions    = 5
	embedBatchLen = 64
)

// Context is the result of a retrieval. Content always holds something
// displayable, even when Status is not StatusOK.
type Context struct {
	Status  Status   `json:"status"`
	Content string   `json:"content"`
	Source  string   `json:"source,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Idiom is a detected idiomatic expression.
type Idiom struct {
	Expression  string `json:"expression"`
	Meaning     string `json:"meaning"`
	Explanation string `json:"explanation"`
}

// PageFetcher resolves a search phrase to an article.
type PageFetcher interface {
	Page(ctx context.Context, phrase string) (*wiki.Page, error)
}

// Config holds retriever locations and tuning.
type Config struct {
	IndexDir     string
	CacheDir     string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

type Retriever struct {
	pages    PageFetcher
	embedder llm.Embedder
	splitter Splitter
	cfg      Config
	log      *logger.Logger

	builds singleflight.Group
	mu     sync.Mutex
	open   map[string]*Index
}

func NewRetriever(pages PageFetcher, embedder llm.Embedder, cfg Config, log *logger.Logger) *Retriever {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Retriever{
		pages:    pages,
		embedder: embedder,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		cfg:      cfg,
		log:      log,
		open:     make(map[string]*Index),
	}
}

// SearchPhrase returns the Wikipedia query used for language and topic.
func SearchPhrase(language, topic string) string {
	phrase := "Culture of " + strings.TrimSpace(language)
	if t := strings.TrimSpace(topic); t != "" {
		phrase += " " + t
	}
	return phrase
}

// CulturalContext returns background material about language, optionally
// narrowed to topic. It never fails; problems are reported via Status.
func (r *Retriever) CulturalContext(ctx context.Context, language, topic string) Context {
	phrase := SearchPhrase(language, topic)
	log := r.log.With("language", language, "phrase", phrase)

	if r.pages == nil || r.embedder == nil {
		return errorContext(errors.New("context retrieval is not configured"))
	}

	page, err := r.page(ctx, phrase)
	if err != nil {
		var dis *wiki.DisambiguationError
		switch {
		case errors.As(err, &dis):
			log.Info("Ambiguous cultural context topic", "options", len(dis.Options))
			opts := dis.Options
			if len(opts) > maxOptions {
				opts = opts[:maxOptions]
			}
			return Context{
				Status:  StatusAmbiguous,
				Content: fmt.Sprintf("Multiple topics found for %s. Please specify a more specific topic.", phrase),
				Options: append([]string(nil), opts...),
			}
		case errors.Is(err, wiki.ErrNotFound):
			return notFoundContext(language)
		default:
			log.Warn("Failed to fetch cultural context", "error", err)
			return errorContext(err)
		}
	}
	if strings.TrimSpace(page.Content) == "" {
		return notFoundContext(language)
	}

	ix, err := r.index(ctx, language, page)
	if err != nil {
		log.Warn("Failed to prepare cultural context index", "error", err)
		return errorContext(err)
	}

	query, err := r.embedder.Embed(ctx, []string{phrase})
	if err != nil {
		return errorContext(err)
	}
	if len(query) != 1 {
		return errorContext(fmt.Errorf("embedder returned %d vectors for one query", len(query)))
	}

	hits, err := ix.Search(ctx, query[0], r.cfg.TopK)
	if err != nil {
		return errorContext(err)
	}
	if len(hits) == 0 {
		return notFoundContext(language)
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Content
	}
	log.Debug("Retrieved cultural context", "chunks", len(hits), "source", page.URL)
	return Context{Status: StatusOK, Content: strings.Join(parts, "\n"), Source: page.URL}
}

// Idioms is reserved for idiom detection, which is currently disabled.
func (r *Retriever) Idioms(ctx context.Context, language, text string) []Idiom {
	return []Idiom{}
}

// Close releases all open indexes.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for path, ix := range r.open {
		if err := ix.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.open, path)
	}
	return errors.Join(errs...)
}

func notFoundContext(language string) Context {
	return Context{
		Status:  StatusNotFound,
		Content: fmt.Sprintf("No specific cultural information found for %s.", language),
	}
}

func errorContext(err error) Context {
	return Context{
		Status:  StatusError,
		Content: fmt.Sprintf("Error retrieving cultural context: %s", err),
	}
}

// index returns the language index, building it from page when no index
// exists on disk yet. Concurrent builds for one language collapse into one.
func (r *Retriever) index(ctx context.Context, language string, page *wiki.Page) (*Index, error) {
	path := IndexPath(r.cfg.IndexDir, language)

	r.mu.Lock()
	ix, ok := r.open[path]
	r.mu.Unlock()
	if ok {
		return ix, nil
	}

	v, err, _ := r.builds.Do(path, func() (interface{}, error) {
		r.mu.Lock()
		if ix, ok := r.open[path]; ok {
			r.mu.Unlock()
			return ix, nil
		}
		r.mu.Unlock()

		var (
			ix  *Index
			err error
		)
		if IndexExists(path) {
			ix, err = OpenIndex(path)
		} else {
			ix, err = r.build(ctx, path, page)
		}
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.open[path] = ix
		r.mu.Unlock()
		return ix, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

func (r *Retriever) build(ctx context.Context, path string, page *wiki.Page) (*Index, error) {
	chunks, err := r.splitter.Split(page.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to split article: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("article %q produced no chunks", page.Title)
	}

	r.log.Info("Building cultural context index", "path", path, "chunks", len(chunks))

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchLen {
		end := min(start+embedBatchLen, len(chunks))
		batch, err := r.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	return CreateIndex(ctx, path, chunks, vectors, page.URL)
}

// page returns the article for phrase from the on-disk cache, fetching and
// caching it on a miss. Only successful fetches are cached.
func (r *Retriever) page(ctx context.Context, phrase string) (*wiki.Page, error) {
	cachePath := ""
	if r.cfg.CacheDir != "" {
		cachePath = filepath.Join(r.cfg.CacheDir, internal.SanitizeFilename(phrase)+".json")
		if data, err := os.ReadFile(cachePath); err == nil {
			var p wiki.Page
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
			r.log.Warn("Ignoring corrupt article cache entry", "path", cachePath)
		}
	}

	p, err := r.pages.Page(ctx, phrase)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		if err := writeJSON(cachePath, p); err != nil {
			r.log.Warn("Failed to cache article", "path", cachePath, "error", err)
		}
	}
	return p, nil
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
