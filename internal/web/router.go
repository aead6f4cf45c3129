package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/translore/internal/culture"
	"codeberg.org/snonux/translore/internal/logger"
	"codeberg.org/snonux/translore/internal/memory"
	"codeberg.org/snonux/translore/internal/processor"
)

//go:embed templates/*.html
var templateFS embed.FS

// Processor runs a translation interaction.
type Processor interface {
	Process(ctx context.Context, user string, in processor.Input) (processor.Report, error)
}

// Store holds preferences and history.
type Store interface {
	LoadPreferences(user string) (memory.Preferences, error)
	SavePreferences(user string, prefs memory.Preferences) error
	History(user string, limit int) ([]memory.HistoryEntry, error)
}

// Retriever looks up cultural background.
type Retriever interface {
	CulturalContext(ctx context.Context, language, topic string) culture.Context
}

// Extractor turns uploads into text.
type Extractor interface {
	Supported(fileType string) bool
	Extract(r io.Reader, fileType string) (string, bool)
}

type RouterConfig struct {
	Processor   Processor
	Store       Store
	Retriever   Retriever
	Extractor   Extractor
	DefaultUser string
	CORSOrigins []string
	Log         *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "default_user"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(UserID(cfg.DefaultUser))
	r.Use(RequestLogger(cfg.Log))
	r.Use(CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = 32 << 20
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")))

	h := &Handler{
		processor: cfg.Processor,
		store:     cfg.Store,
		retriever: cfg.Retriever,
		extractor: cfg.Extractor,
		log:       cfg.Log,
	}

	r.GET("/healthcheck", h.HealthCheck)

	// Browser UI
	r.GET("/", h.Index)
	r.POST("/translate", h.TranslateForm)
	r.POST("/preferences", h.PreferencesForm)

	api := r.Group("/api")
	{
		api.GET("/languages", h.Languages)
		api.GET("/history", h.History)
		api.POST("/translate", h.Translate)
		api.POST("/extract", h.Extract)
		api.GET("/context", h.Context)
		api.GET("/preferences", h.GetPreferences)
		api.PUT("/preferences", h.PutPreferences)
	}

	return r
}

var templateFuncs = template.FuncMap{
	"lines": func(s string) []string {
		return strings.Split(strings.TrimSpace(s), "\n")
	},
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
	"metaString": func(m map[string]interface{}, key string) string {
		if v, ok := m[key].(string); ok {
			return v
		}
		return ""
	},
}
