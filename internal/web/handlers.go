package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/translore/internal/culture"
	"codeberg.org/snonux/translore/internal/extract"
	"codeberg.org/snonux/translore/internal/langdetect"
	"codeberg.org/snonux/translore/internal/logger"
	"codeberg.org/snonux/translore/internal/memory"
	"codeberg.org/snonux/translore/internal/processor"
	"codeberg.org/snonux/translore/internal/translation"
)

const (
	recentHistory       = 5
	defaultHistoryLimit = 10
	maxHistoryLimit     = 1000
)

type Handler struct {
	processor Processor
	store     Store
	retriever Retriever
	extractor Extractor
	log       *logger.Logger
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// pageData feeds the index and results templates.
type pageData struct {
	User        string
	Languages   []string
	Selected    []string
	Preferences memory.Preferences
	History     []memory.HistoryEntry
	Text        string
	Topic       string
	Background  bool
	Error       string
	Notice      string
	Source      langdetect.Detection
	Results     []resultView
}

func (h *Handler) indexData(c *gin.Context) pageData {
	user := userFrom(c)
	prefs, err := h.store.LoadPreferences(user)
	if err != nil {
		h.log.Warn("Falling back to default preferences", "user", user, "error", err)
	}

	history, err := h.store.History(user, recentHistory)
	if err != nil {
		h.log.Warn("Failed to load history", "user", user, "error", err)
	}
	// Most recent first
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	selected := prefs.PreferredLanguages
	if len(selected) == 0 {
		selected = []string{langdetect.DefaultTargetLanguage}
	}
	return pageData{
		User:        user,
		Languages:   langdetect.SupportedLanguages,
		Selected:    selected,
		Preferences: prefs,
		History:     history,
	}
}

func (h *Handler) Index(c *gin.Context) {
	data := h.indexData(c)
	if c.Query("saved") == "1" {
		data.Notice = "Preferences saved."
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) renderFormError(c *gin.Context, status int, data pageData, msg string) {
	data.Error = msg
	c.HTML(status, "index.html", data)
}

// TranslateForm handles the multipart form of the index page.
func (h *Handler) TranslateForm(c *gin.Context) {
	data := h.indexData(c)
	data.Text = c.PostForm("text")
	data.Topic = strings.TrimSpace(c.PostForm("topic"))
	data.Background = formBool(c, "background")

	style, err := translation.ParseStyle(c.PostForm("style"))
	if err != nil {
		h.renderFormError(c, http.StatusBadRequest, data, err.Error())
		return
	}

	text := data.Text
	if fh, err := c.FormFile("document"); err == nil {
		fileType := extract.FileType(fh.Filename)
		if !h.extractor.Supported(fileType) {
			h.renderFormError(c, http.StatusUnsupportedMediaType, data,
				fmt.Sprintf("Unsupported file type %q. Please upload a txt, docx or pdf file.", fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.renderFormError(c, http.StatusBadRequest, data, "Could not read the uploaded file.")
			return
		}
		extracted, ok := h.extractor.Extract(f, fileType)
		f.Close()
		if !ok {
			h.renderFormError(c, http.StatusUnprocessableEntity, data,
				fmt.Sprintf("Could not extract text from %s.", fh.Filename))
			return
		}
		text = extracted
		data.Text = extracted
	}

	languages := c.PostFormArray("languages")
	if len(languages) == 0 {
		languages = data.Selected
	}
	data.Selected = languages

	report, err := h.processor.Process(c.Request.Context(), userFrom(c), processor.Input{
		Text:                   text,
		Languages:              languages,
		Style:                  style,
		IncludeCulturalContext: formBool(c, "cultural_context"),
		IncludeIdioms:          formBool(c, "idioms"),
		IncludeBackground:      data.Background,
		Topic:                  data.Topic,
	})
	if errors.Is(err, translation.ErrEmptyText) {
		h.renderFormError(c, http.StatusBadRequest, data, "Please enter some text to translate or upload a file.")
		return
	}
	if err != nil {
		h.renderFormError(c, http.StatusInternalServerError, data, err.Error())
		return
	}

	data.Source = report.SourceLanguage
	data.Results = resultViews(report)
	c.HTML(http.StatusOK, "results.html", data)
}

// PreferencesForm saves the settings form and redirects back to the index.
func (h *Handler) PreferencesForm(c *gin.Context) {
	style, err := translation.ParseStyle(c.PostForm("style"))
	if err != nil {
		h.renderFormError(c, http.StatusBadRequest, h.indexData(c), err.Error())
		return
	}
	prefs := memory.Preferences{
		Style:                  string(style),
		IncludeCulturalContext: formBool(c, "cultural_context"),
		IncludeIdioms:          formBool(c, "idioms"),
		PreferredLanguages:     normalizeLanguages(c.PostFormArray("languages")),
	}
	if err := h.store.SavePreferences(userFrom(c), prefs); err != nil {
		h.renderFormError(c, http.StatusInternalServerError, h.indexData(c), err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/?saved=1")
}

func (h *Handler) Languages(c *gin.Context) {
	RespondOK(c, gin.H{
		"languages": langdetect.SupportedLanguages,
		"default":   langdetect.DefaultTargetLanguage,
	})
}

func (h *Handler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			RespondError(c, http.StatusBadRequest, "invalid_limit",
				fmt.Errorf("limit must be an integer between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	entries, err := h.store.History(userFrom(c), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}

type translateRequest struct {
	Text                   string   `json:"text"`
	Languages              []string `json:"languages"`
	Style                  string   `json:"style"`
	IncludeCulturalContext *bool    `json:"include_cultural_context"`
	IncludeIdioms          *bool    `json:"include_idioms"`
	IncludeBackground      bool     `json:"include_background"`
	Topic                  string   `json:"topic"`
}

type resultView struct {
	Language        string           `json:"language"`
	Translation     string           `json:"translation,omitempty"`
	CulturalContext string           `json:"cultural_context,omitempty"`
	Idioms          string           `json:"idioms,omitempty"`
	Background      *culture.Context `json:"background,omitempty"`
	Error           string           `json:"error,omitempty"`
}

func resultViews(report processor.Report) []resultView {
	views := make([]resultView, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		v := resultView{Language: o.Language, Background: o.Background}
		if o.OK() {
			v.Translation = o.Result.Translation
			v.CulturalContext = o.Result.CulturalContext
			v.Idioms = o.Result.Idioms
		} else {
			v.Error = o.Message()
		}
		views = append(views, v)
	}
	return views
}

// Translate is the JSON counterpart of TranslateForm. Unset options fall
// back to the user's preferences.
func (h *Handler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user := userFrom(c)
	prefs, err := h.store.LoadPreferences(user)
	if err != nil {
		h.log.Warn("Falling back to default preferences", "user", user, "error", err)
	}

	styleName := req.Style
	if styleName == "" {
		styleName = prefs.Style
	}
	style, err := translation.ParseStyle(styleName)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_style", err)
		return
	}

	in := processor.Input{
		Text:                   req.Text,
		Languages:              req.Languages,
		Style:                  style,
		IncludeCulturalContext: prefs.IncludeCulturalContext,
		IncludeIdioms:          prefs.IncludeIdioms,
		IncludeBackground:      req.IncludeBackground,
		Topic:                  req.Topic,
	}
	if len(in.Languages) == 0 {
		in.Languages = prefs.PreferredLanguages
	}
	if req.IncludeCulturalContext != nil {
		in.IncludeCulturalContext = *req.IncludeCulturalContext
	}
	if req.IncludeIdioms != nil {
		in.IncludeIdioms = *req.IncludeIdioms
	}

	report, err := h.processor.Process(c.Request.Context(), user, in)
	if errors.Is(err, translation.ErrEmptyText) {
		RespondError(c, http.StatusBadRequest, "empty_text", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "translate_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"source_language": report.SourceLanguage,
		"results":         resultViews(report),
	})
}

// Extract returns the text of an uploaded document without translating it.
func (h *Handler) Extract(c *gin.Context) {
	fh, err := c.FormFile("document")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_document", errors.New("multipart field \"document\" is required"))
		return
	}
	fileType := extract.FileType(fh.Filename)
	if !h.extractor.Supported(fileType) {
		RespondError(c, http.StatusUnsupportedMediaType, "unsupported_type",
			fmt.Errorf("unsupported file type %q", fileType))
		return
	}
	f, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_document", err)
		return
	}
	defer f.Close()

	text, ok := h.extractor.Extract(f, fileType)
	if !ok {
		RespondError(c, http.StatusUnprocessableEntity, "extraction_failed",
			fmt.Errorf("could not extract text from %s", fh.Filename))
		return
	}
	RespondOK(c, gin.H{"type": fileType, "text": text})
}

func (h *Handler) Context(c *gin.Context) {
	language := strings.TrimSpace(c.Query("language"))
	if language == "" {
		RespondError(c, http.StatusBadRequest, "missing_language", errors.New("query parameter \"language\" is required"))
		return
	}
	if h.retriever == nil {
		RespondError(c, http.StatusServiceUnavailable, "retrieval_disabled", errors.New("context retrieval is not configured"))
		return
	}
	RespondOK(c, h.retriever.CulturalContext(c.Request.Context(), langdetect.NormalizeName(language), c.Query("topic")))
}

func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := h.store.LoadPreferences(userFrom(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "preferences_failed", err)
		return
	}
	RespondOK(c, prefs)
}

func (h *Handler) PutPreferences(c *gin.Context) {
	var prefs memory.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	style, err := translation.ParseStyle(prefs.Style)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_style", err)
		return
	}
	prefs.Style = string(style)
	prefs.PreferredLanguages = normalizeLanguages(prefs.PreferredLanguages)

	if err := h.store.SavePreferences(userFrom(c), prefs); err != nil {
		RespondError(c, http.StatusInternalServerError, "preferences_failed", err)
		return
	}
	RespondOK(c, prefs)
}

func formBool(c *gin.Context, key string) bool {
	switch strings.ToLower(c.PostForm(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func normalizeLanguages(in []string) []string {
	out := []string{}
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
