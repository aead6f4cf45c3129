package processor

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/translore/internal"
	"codeberg.org/snonux/translore/internal/batch"
	"codeberg.org/snonux/translore/internal/culture"
	"codeberg.org/snonux/translore/internal/langdetect"
	"codeberg.org/snonux/translore/internal/logger"
	"codeberg.org/snonux/translore/internal/memory"
	"codeberg.org/snonux/translore/internal/translation"
)

// Translator translates one request.
type Translator interface {
	Translate(ctx context.Context, req translation.Request) (translation.Result, error)
}

// ContextRetriever looks up cultural background for a language.
type ContextRetriever interface {
	CulturalContext(ctx context.Context, language, topic string) culture.Context
}

// HistoryStore records translations.
type HistoryStore interface {
	AddHistory(user string, entry memory.HistoryEntry) error
}

// Input is one interaction.
type Input struct {
	Text                   string
	Languages              []string
	Style                  translation.Style
	IncludeCulturalContext bool
	IncludeIdioms          bool
	// IncludeBackground fetches Wikipedia background per language, narrowed
	// to Topic when set.
	IncludeBackground bool
	Topic             string
}

// Outcome is the result for one target language.
type Outcome struct {
	Language   string
	Result     translation.Result
	Background *culture.Context
	Err        error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Message is the text shown in place of a failed translation.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to get translation for %s. Please check your API key and try again.", o.Language)
}

// Report collects the outcomes of one interaction in language order.
type Report struct {
	SourceLanguage langdetect.Detection
	Outcomes       []Outcome
}

// Failed returns the number of languages that could not be translated.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Processor handles translation interactions
type Processor struct {
	translator Translator
	retriever  ContextRetriever
	store      HistoryStore
	detector   *langdetect.Detector
	log        *logger.Logger
}

// NewProcessor creates a new processor. retriever and store may be nil, in
// which case background lookup and history recording are skipped.
func NewProcessor(translator Translator, retriever ContextRetriever, store HistoryStore, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		translator: translator,
		retriever:  retriever,
		store:      store,
		detector:   langdetect.NewDetector(),
		log:        log,
	}
}

// Process translates in.Text into every language of in.Languages, one after
// another. Only an empty text is an error; per-language failures are
// reported in the outcomes.
func (p *Processor) Process(ctx context.Context, user string, in Input) (Report, error) {
	return p.process(ctx, user, in, nil)
}

func (p *Processor) process(ctx context.Context, user string, in Input, cache *translation.Cache) (Report, error) {
	if strings.TrimSpace(in.Text) == "" {
		return Report{}, translation.ErrEmptyText
	}

	languages := normalizeLanguages(in.Languages)
	if len(languages) == 0 {
		languages = []string{langdetect.DefaultTargetLanguage}
	}
	if in.Style == "" {
		in.Style = translation.StyleInformal
	}

	report := Report{SourceLanguage: p.detector.Detect(in.Text)}
	log := p.log.With("user", user, "source_language", report.SourceLanguage.Language)

	for _, lang := range languages {
		if err := ctx.Err(); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{Language: lang, Err: err})
			continue
		}

		outcome := Outcome{Language: lang}
		req := translation.Request{
			Text:                   in.Text,
			TargetLanguage:         lang,
			Style:                  in.Style,
			IncludeCulturalContext: in.IncludeCulturalContext,
			IncludeIdioms:          in.IncludeIdioms,
		}

		res, cached := cache.Get(req)
		if !cached {
			var err error
			res, err = p.translator.Translate(ctx, req)
			if err != nil {
				log.Warn("Translation failed", "language", lang, "error", err)
				outcome.Err = err
				report.Outcomes = append(report.Outcomes, outcome)
				continue
			}
			cache.Add(req, res)
		}
		outcome.Result = res

		if in.IncludeBackground && p.retriever != nil {
			bg := p.retriever.CulturalContext(ctx, lang, in.Topic)
			outcome.Background = &bg
		}

		p.record(user, in, req, outcome, report.SourceLanguage)
		log.Info("Translated", "language", lang, "chars", len(res.Translation), "cached", cached)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report, nil
}

func (p *Processor) record(user string, in Input, req translation.Request, o Outcome, src langdetect.Detection) {
	if p.store == nil {
		return
	}
	meta := map[string]interface{}{
		"style":            string(req.Style),
		"cultural_context": o.Result.CulturalContext,
		"idioms":           o.Result.Idioms,
	}
	if !src.Unknown() {
		meta["source_language"] = src.Language
	}
	if o.Background != nil && o.Background.Status == culture.StatusOK {
		meta["background_source"] = o.Background.Source
	}

	err := p.store.AddHistory(user, memory.HistoryEntry{
		SourceText:     in.Text,
		TargetLanguage: o.Language,
		Translation:    o.Result.Translation,
		Metadata:       meta,
	})
	if err != nil {
		p.log.Error("Failed to record history", "user", user, "language", o.Language, "error", err)
	}
}

// BatchSummary reports a batch run.
type BatchSummary struct {
	Entries    int
	Translated int
	Failed     int
	Reports    []Report
}

// ProcessBatch translates every entry of a batch file. Entries without their
// own language list use defaults.Languages. Identical requests inside one
// run are translated once.
func (p *Processor) ProcessBatch(ctx context.Context, user, filename string, defaults Input) (BatchSummary, error) {
	entries, err := batch.ReadBatchFile(filename)
	if err != nil {
		return BatchSummary{}, err
	}

	cache := translation.NewCache()
	summary := BatchSummary{Entries: len(entries)}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		in := defaults
		in.Text = entry.Text
		if len(entry.Languages) > 0 {
			in.Languages = entry.Languages
		}

		p.log.Debug("Processing batch entry", "index", i+1, "total", len(entries), "text", internal.Truncate(entry.Text, 40))
		report, err := p.process(ctx, user, in, cache)
		if err != nil {
			return summary, err
		}

		for _, o := range report.Outcomes {
			if o.OK() {
				summary.Translated++
			} else {
				summary.Failed++
			}
		}
		summary.Reports = append(summary.Reports, report)
	}

	p.log.Info("Batch finished", "entries", summary.Entries, "translated", summary.Translated,
		"failed", summary.Failed, "cached", cache.Len())
	return summary, nil
}

func normalizeLanguages(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, l := range in {
		name := langdetect.NormalizeName(l)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
