package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"codeberg.org/snonux/translore/internal/llm"
)

// ErrMissingAPIKey is returned by LoadConfig when no LLM API key is set.
var ErrMissingAPIKey = errors.New("LLM API key not found. Set TRANSLORE_LLM_API_KEY (or GROQ_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY) or configure llm.api_key in .translore.yaml")

// Config is the resolved application configuration.
type Config struct {
	LLM       llm.Config
	Embedding llm.EmbeddingConfig

	MemoryDir         string
	CacheDir          string
	VectorDBDir       string
	WikipediaLanguage string

	Address     string
	UserID      string
	CORSOrigins []string

	LogMode string
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults() {
	viper.SetDefault("llm.provider", llm.ProviderGroq)
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 4096)

	viper.SetDefault("embedding.provider", llm.ProviderOpenAI)
	viper.SetDefault("embedding.model", "")
	viper.SetDefault("embedding.base_url", "")

	viper.SetDefault("storage.memory_dir", "./data/memory")
	viper.SetDefault("storage.cache_dir", "./data/wikipedia_cache")
	viper.SetDefault("storage.vector_db_dir", "./data/vector_db")

	viper.SetDefault("wikipedia.language", "en")

	viper.SetDefault("server.address", ":8501")
	viper.SetDefault("server.user_id", "default_user")
	viper.SetDefault("server.cors_origins", []string{})

	viper.SetDefault("log.mode", "dev")
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".translore" (without extension)
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		} else {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".translore")
	}

	// Environment variables: TRANSLORE_LLM_MODEL -> llm.model
	viper.SetEnvPrefix("TRANSLORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// nativeKeyEnv is the provider's own API key variable.
func nativeKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

// GetAPIKey retrieves the chat provider's API key: TRANSLORE_LLM_API_KEY
// first, then the provider's own variable, then the config file.
func GetAPIKey(provider string) string {
	if key := os.Getenv("TRANSLORE_LLM_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv(nativeKeyEnv(provider)); key != "" {
		return key
	}
	return viper.GetString("llm.api_key")
}

// GetEmbeddingAPIKey retrieves the embedding provider's API key. When the
// embedding and chat providers match, the chat key is reused.
func GetEmbeddingAPIKey(provider, chatProvider string) string {
	if key := viper.GetString("embedding.api_key"); key != "" {
		return key
	}
	if key := os.Getenv(nativeKeyEnv(provider)); key != "" {
		return key
	}
	if strings.EqualFold(provider, chatProvider) {
		return GetAPIKey(chatProvider)
	}
	return ""
}

// LoadConfig resolves the configuration from flags, environment and config
// file. It returns ErrMissingAPIKey together with the otherwise complete
// config when no chat API key is set.
func LoadConfig() (*Config, error) {
	provider := strings.ToLower(viper.GetString("llm.provider"))
	switch provider {
	case llm.ProviderGroq, llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported llm.provider %q (want groq, openai or gemini)", provider)
	}

	embProvider := strings.ToLower(viper.GetString("embedding.provider"))
	switch embProvider {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported embedding.provider %q (want openai or gemini)", embProvider)
	}

	temperature := viper.GetFloat64("llm.temperature")
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", temperature)
	}
	maxTokens := viper.GetInt("llm.max_tokens")
	if maxTokens <= 0 {
		return nil, fmt.Errorf("llm.max_tokens must be positive, got %d", maxTokens)
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = llm.DefaultModel(provider)
	}
	embModel := viper.GetString("embedding.model")
	if embModel == "" {
		embModel = llm.DefaultEmbeddingModel(embProvider)
	}

	cfg := &Config{
		LLM: llm.Config{
			Provider:    provider,
			Model:       model,
			BaseURL:     viper.GetString("llm.base_url"),
			APIKey:      GetAPIKey(provider),
			Temperature: float32(temperature),
			MaxTokens:   maxTokens,
		},
		Embedding: llm.EmbeddingConfig{
			Provider: embProvider,
			Model:    embModel,
			BaseURL:  viper.GetString("embedding.base_url"),
			APIKey:   GetEmbeddingAPIKey(embProvider, provider),
		},
		MemoryDir:         viper.GetString("storage.memory_dir"),
		CacheDir:          viper.GetString("storage.cache_dir"),
		VectorDBDir:       viper.GetString("storage.vector_db_dir"),
		WikipediaLanguage: viper.GetString("wikipedia.language"),
		Address:           viper.GetString("server.address"),
		UserID:            viper.GetString("server.user_id"),
		CORSOrigins:       viper.GetStringSlice("server.cors_origins"),
		LogMode:           viper.GetString("log.mode"),
	}

	if cfg.LLM.APIKey == "" {
		return cfg, ErrMissingAPIKey
	}
	return cfg, nil
}
