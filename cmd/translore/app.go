package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/translore/internal/archive"
	"codeberg.org/snonux/translore/internal/cli"
	"codeberg.org/snonux/translore/internal/culture"
	"codeberg.org/snonux/translore/internal/extract"
	"codeberg.org/snonux/translore/internal/llm"
	"codeberg.org/snonux/translore/internal/logger"
	"codeberg.org/snonux/translore/internal/memory"
	"codeberg.org/snonux/translore/internal/models"
	"codeberg.org/snonux/translore/internal/processor"
	"codeberg.org/snonux/translore/internal/translation"
	"codeberg.org/snonux/translore/internal/web"
	"codeberg.org/snonux/translore/internal/wiki"
)

// app wires the configured components and implements cli.Runner.
type app struct {
	out io.Writer

	cfg       *cli.Config
	log       *logger.Logger
	store     *memory.Store
	retriever *culture.Retriever
	extractor *extract.Registry
	proc      *processor.Processor
}

// setup loads the configuration and builds every component. Commands that
// talk to the chat model pass needChat; for them a missing key is fatal.
func (a *app) setup(ctx context.Context, needChat bool) error {
	if a.out == nil {
		a.out = os.Stdout
	}

	cfg, err := cli.LoadConfig()
	if err != nil && !(errors.Is(err, cli.ErrMissingAPIKey) && !needChat) {
		return err
	}
	a.cfg = cfg

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log

	store, err := memory.NewStore(cfg.MemoryDir, log.With("component", "memory"))
	if err != nil {
		return err
	}
	a.store = store

	var embedder llm.Embedder
	if e, err := llm.NewEmbedder(ctx, cfg.Embedding); err != nil {
		log.Warn("Cultural context disabled", "reason", err)
	} else {
		embedder = llm.EmbedderWithBreaker(e, log)
	}

	pages := wiki.NewClient(cfg.WikipediaLanguage, log.With("component", "wiki"))
	a.retriever = culture.NewRetriever(pages, embedder, culture.Config{
		IndexDir: cfg.VectorDBDir,
		CacheDir: cfg.CacheDir,
	}, log.With("component", "culture"))

	a.extractor = extract.NewRegistry(log.With("component", "extract"))

	var translator *translation.Translator
	if cfg.LLM.APIKey != "" {
		provider, err := llm.NewChatProvider(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		translator = translation.NewTranslator(llm.WithBreaker(provider, log), log.With("component", "translation"))
	} else {
		translator = translation.NewTranslator(nil, log)
	}
	a.proc = processor.NewProcessor(translator, a.retriever, store, log.With("component", "processor"))

	log.Debug("Configuration loaded", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model,
		"embedding_provider", cfg.Embedding.Provider, "memory_dir", cfg.MemoryDir)
	return nil
}

func (a *app) close() {
	if a.retriever != nil {
		if err := a.retriever.Close(); err != nil && a.log != nil {
			a.log.Warn("Failed to close index", "error", err)
		}
		a.retriever = nil
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func (a *app) Serve(ctx context.Context, flags *cli.Flags) error {
	if err := a.setup(ctx, true); err != nil {
		return err
	}
	if a.cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := web.NewServer(web.RouterConfig{
		Processor:   a.proc,
		Store:       a.store,
		Retriever:   a.retriever,
		Extractor:   a.extractor,
		DefaultUser: a.cfg.UserID,
		CORSOrigins: a.cfg.CORSOrigins,
		Log:         a.log.With("component", "web"),
	})
	fmt.Fprintf(a.out, "Serving translore on %s\n", a.cfg.Address)
	return srv.Run(ctx, a.cfg.Address)
}

func (a *app) Translate(ctx context.Context, flags *cli.Flags, text string) error {
	if err := a.setup(ctx, true); err != nil {
		return err
	}

	text, err := a.readInput(flags.File, text)
	if err != nil {
		return err
	}
	in, err := a.input(flags)
	if err != nil {
		return err
	}
	in.Text = text

	report, err := a.proc.Process(ctx, a.cfg.UserID, in)
	if err != nil {
		return err
	}
	printReport(a.out, report)
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d translations failed", n, len(report.Outcomes))
	}
	return nil
}

// readInput returns the text to translate from a file, stdin ("-") or the
// argument itself.
func (a *app) readInput(file, text string) (string, error) {
	if file != "" {
		fileType := extract.FileType(file)
		if !a.extractor.Supported(fileType) {
			return "", fmt.Errorf("unsupported file type %q (supported: %s)", fileType, strings.Join(a.extractor.Types(), ", "))
		}
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()
		extracted, ok := a.extractor.Extract(f, fileType)
		if !ok {
			return "", fmt.Errorf("failed to extract text from %s", file)
		}
		return extracted, nil
	}
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return text, nil
}

// input merges flags over the user's saved preferences.
func (a *app) input(flags *cli.Flags) (processor.Input, error) {
	prefs, err := a.store.LoadPreferences(a.cfg.UserID)
	if err != nil {
		a.log.Warn("Using default preferences", "error", err)
	}

	styleName := prefs.Style
	if flags.Style != "" {
		styleName = flags.Style
	}
	style, err := translation.ParseStyle(styleName)
	if err != nil {
		return processor.Input{}, err
	}

	languages := flags.Languages
	if len(languages) == 0 {
		languages = prefs.PreferredLanguages
	}

	return processor.Input{
		Languages:              languages,
		Style:                  style,
		IncludeCulturalContext: prefs.IncludeCulturalContext && !flags.NoContext,
		IncludeIdioms:          prefs.IncludeIdioms && !flags.NoIdioms,
		IncludeBackground:      flags.Background,
		Topic:                  flags.Topic,
	}, nil
}

func (a *app) History(ctx context.Context, flags *cli.Flags) error {
	if err := a.setup(ctx, false); err != nil {
		return err
	}
	entries, err := a.store.History(a.cfg.UserID, flags.Limit)
	if err != nil {
		return err
	}

	switch strings.ToLower(flags.Format) {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = a.out.Write(data)
		return err
	default:
		printHistory(a.out, entries)
		return nil
	}
}

func (a *app) Context(ctx context.Context, flags *cli.Flags, language, topic string) error {
	if err := a.setup(ctx, false); err != nil {
		return err
	}
	cc := a.retriever.CulturalContext(ctx, language, topic)
	printContext(a.out, cc)
	if cc.Status == culture.StatusError {
		return errors.New(cc.Content)
	}
	return nil
}

func (a *app) Batch(ctx context.Context, flags *cli.Flags, file string) error {
	if err := a.setup(ctx, true); err != nil {
		return err
	}
	in, err := a.input(flags)
	if err != nil {
		return err
	}

	summary, err := a.proc.ProcessBatch(ctx, a.cfg.UserID, file, in)
	for i, report := range summary.Reports {
		fmt.Fprintf(a.out, "\n[%d/%d]\n", i+1, summary.Entries)
		printReport(a.out, report)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nDone! %d translated, %d failed, %d entries\n", summary.Translated, summary.Failed, summary.Entries)
	return nil
}

func (a *app) Models(ctx context.Context, flags *cli.Flags) error {
	if err := a.setup(ctx, true); err != nil {
		return err
	}
	lister := models.NewLister(a.cfg.LLM.Provider, a.cfg.LLM.APIKey, a.cfg.LLM.BaseURL)
	return lister.Print(ctx, a.out)
}

func (a *app) Archive(ctx context.Context, flags *cli.Flags) error {
	if err := a.setup(ctx, false); err != nil {
		return err
	}
	dest, err := archive.ArchiveDir(a.cfg.MemoryDir)
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", a.cfg.MemoryDir, err)
	}
	fmt.Fprintf(a.out, "Archived %s to %s\n", a.cfg.MemoryDir, dest)
	return nil
}

func printReport(w io.Writer, report processor.Report) {
	if d := report.SourceLanguage; !d.Unknown() {
		fmt.Fprintf(w, "Detected source language: %s (confidence %.2f)\n", d.Language, d.Confidence)
	}
	for _, o := range report.Outcomes {
		fmt.Fprintf(w, "\n=== %s ===\n", o.Language)
		if !o.OK() {
			fmt.Fprintln(w, o.Message())
			continue
		}
		fmt.Fprintln(w, o.Result.Translation)
		if o.Result.CulturalContext != "" {
			fmt.Fprintf(w, "\nCultural context:\n%s\n", o.Result.CulturalContext)
		}
		if o.Result.Idioms != "" {
			fmt.Fprintf(w, "\nIdioms:\n%s\n", o.Result.Idioms)
		}
		if o.Background != nil {
			fmt.Fprintln(w, "\nBackground:")
			printContext(w, *o.Background)
		}
	}
}

func printContext(w io.Writer, cc culture.Context) {
	fmt.Fprintln(w, cc.Content)
	for _, opt := range cc.Options {
		fmt.Fprintf(w, "  - %s\n", opt)
	}
	if cc.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", cc.Source)
	}
}

func printHistory(w io.Writer, entries []memory.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No translation history yet.")
		return
	}
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s  %s -> %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), oneLine(e.SourceText), e.TargetLanguage)
		fmt.Fprintf(&buf, "    %s\n", oneLine(e.Translation))
	}
	w.Write(buf.Bytes())
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
