package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"codeberg.org/snonux/translore/internal/logger"
)

// MaxFileSize bounds how much of an upload is read.
const MaxFileSize = 20 << 20

// Extractor converts one document type to plain text.
type Extractor interface {
	Type() string
	Extract(data []byte) (string, error)
}

// Registry dispatches extraction by type tag ("txt", "docx", "pdf").
type Registry struct {
	byType map[string]Extractor
	log    *logger.Logger
}

// NewRegistry returns a registry with the txt, docx and pdf extractors.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	r := &Registry{byType: map[string]Extractor{}, log: log}
	r.Register(txtExtractor{})
	r.Register(docxExtractor{})
	r.Register(pdfExtractor{})
	return r
}

func (r *Registry) Register(e Extractor) { r.byType[e.Type()] = e }

// Supported reports whether fileType can be extracted.
func (r *Registry) Supported(fileType string) bool {
	_, ok := r.byType[normalizeType(fileType)]
	return ok
}

// Types lists the supported type tags in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Extract reads the document from rd and returns its text. The boolean is
// false for unsupported types and on any read or parse failure.
func (r *Registry) Extract(rd io.Reader, fileType string) (string, bool) {
	fileType = normalizeType(fileType)
	e, ok := r.byType[fileType]
	if !ok {
		r.log.Warn("Unsupported file type", "type", fileType)
		return "", false
	}

	data, err := io.ReadAll(io.LimitReader(rd, MaxFileSize+1))
	if err != nil {
		r.log.Warn("Failed to read upload", "type", fileType, "error", err)
		return "", false
	}
	if len(data) > MaxFileSize {
		r.log.Warn("Upload too large", "type", fileType, "limit", MaxFileSize)
		return "", false
	}

	text, err := safeExtract(e, data)
	if err != nil {
		r.log.Warn("Failed to extract text", "type", fileType, "error", err)
		return "", false
	}
	return text, true
}

// FileType derives the type tag from a file name's extension.
func FileType(filename string) string {
	return normalizeType(filepath.Ext(filename))
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
}

// safeExtract turns parser panics on malformed input into errors.
func safeExtract(e Extractor, data []byte) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%s parser panic: %v", e.Type(), p)
		}
	}()
	return e.Extract(data)
}
