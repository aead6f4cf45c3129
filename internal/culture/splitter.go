package culture

import (
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Splitter cuts documents into overlapping windows, preferring paragraph,
// line and word boundaries.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

func NewSplitter(size, overlap int) Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	return Splitter{inner: textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)}
}

func (s Splitter) Split(text string) ([]string, error) {
	return s.inner.SplitText(text)
}
