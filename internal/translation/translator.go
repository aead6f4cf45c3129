package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/snonux/translore/internal/llm"
	"codeberg.org/snonux/translore/internal/logger"
)

// Style is the register the translation should be written in.
type Style string

const (
	StyleFormal   Style = "formal"
	StyleInformal Style = "informal"
	StyleMixed    Style = "mixed"
)

// ErrEmptyText is returned when there is nothing to translate.
var ErrEmptyText = errors.New("no text to translate")

// ParseStyle accepts any casing of formal, informal or mixed.
// An empty string yields StyleInformal.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleFormal:
		return StyleFormal, nil
	case StyleInformal, "":
		return StyleInformal, nil
	case StyleMixed:
		return StyleMixed, nil
	default:
		return "", fmt.Errorf("unknown translation style %q (want formal, informal or mixed)", s)
	}
}

// Request describes one translation into one target language.
type Request struct {
	Text                   string
	TargetLanguage         string
	Style                  Style
	IncludeCulturalContext bool
	IncludeIdioms          bool
}

// Result holds the parsed sections of a reply. Missing sections are "".
type Result struct {
	Translation     string `json:"translation"`
	CulturalContext string `json:"cultural_context"`
	Idioms          string `json:"idioms"`
}

// Translator sends translation requests to a chat provider.
type Translator struct {
	provider llm.ChatProvider
	log      *logger.Logger
}

// NewTranslator creates a new translator instance
func NewTranslator(provider llm.ChatProvider, log *logger.Logger) *Translator {
	if log == nil {
		log = logger.Nop()
	}
	return &Translator{provider: provider, log: log}
}

// Translate sends one request and parses the reply. Provider errors are
// returned wrapped; the caller decides how to report them.
func (t *Translator) Translate(ctx context.Context, req Request) (Result, error) {
	if t.provider == nil {
		return Result{}, fmt.Errorf("translation provider not configured")
	}
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrEmptyText
	}
	if req.Style == "" {
		req.Style = StyleInformal
	}

	system := BuildSystemPrompt(req.TargetLanguage, req.Style, req.IncludeCulturalContext, req.IncludeIdioms)

	start := time.Now()
	reply, err := t.provider.Complete(ctx, system, req.Text)
	if err != nil {
		t.log.Warn("translation failed", "provider", t.provider.Name(), "language", req.TargetLanguage, "error", err)
		return Result{}, fmt.Errorf("translate to %s: %w", req.TargetLanguage, err)
	}

	sections := ParseSections(reply)
	t.log.Debug("translation done",
		"provider", t.provider.Name(),
		"language", req.TargetLanguage,
		"sections", len(sections),
		"duration_ms", time.Since(start).Milliseconds())

	return Result{
		Translation:     sections[SectionTranslation],
		CulturalContext: sections[SectionCulturalContext],
		Idioms:          sections[SectionIdioms],
	}, nil
}
