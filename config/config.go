package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	SearchProviderAzure    = "azure"
	SearchProviderPgvector = "pgvector"
)

type Config struct {
	Port   string
	APIKey string

	Search     SearchConfig
	Embeddings EmbeddingsConfig
	LLM        LLMConfig
	Storage    StorageConfig

	PostgresDSN string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	MaxPromptChars  int
	MaxContextChars int
}

type SearchConfig struct {
	Provider string
	Service  string
	Index    string
	APIKey   string
	Top      int
}

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider   string
	Model      string
	MaxRetries int
	RPS        float64
}

type StorageConfig struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

func Load() (Config, error) {
	// A missing .env file is fine; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := Config{
		Port:   getEnv("PORT", "8080"),
		APIKey: getEnv("API_KEY", ""),
		Search: SearchConfig{
			Provider: getEnv("SEARCH_PROVIDER", SearchProviderAzure),
			Service:  getEnv("AZURE_SEARCH_SERVICE_NAME", ""),
			Index:    getEnv("AZURE_SEARCH_INDEX_NAME", ""),
			APIKey:   getEnv("AZURE_SEARCH_API_KEY", ""),
			Top:      getEnvAsInt("SEARCH_TOP", 3),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDING_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getEnvAsInt("EMBEDDING_DIMENSION", 1536),
		},
		LLM: LLMConfig{
			Provider:   getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:      getEnv("LLM_MODEL", "gpt-4o"),
			MaxRetries: getEnvAsInt("LLM_MAX_RETRIES", 3),
			RPS:        getEnvAsFloat("LLM_RPS", 0),
		},
		Storage: StorageConfig{
			Bucket:   getEnv("STORAGE_BUCKET", ""),
			Region:   getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint: getEnv("STORAGE_ENDPOINT", ""),
			Prefix:   getEnv("STORAGE_PREFIX", "ddq_responses"),
		},
		PostgresDSN:     getEnv("POSTGRES_DSN", "postgres://localhost:5432/ddq-agent?sslmode=disable"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		MaxPromptChars:  getEnvAsInt("MAX_PROMPT_CHARS", 5000),
		MaxContextChars: getEnvAsInt("MAX_CONTEXT_CHARS", 8000),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Search.Provider {
	case SearchProviderAzure:
		if c.Search.Service == "" || c.Search.Index == "" || c.Search.APIKey == "" {
			return fmt.Errorf("azure search provider requires AZURE_SEARCH_SERVICE_NAME, AZURE_SEARCH_INDEX_NAME and AZURE_SEARCH_API_KEY")
		}
	case SearchProviderPgvector:
		if c.PostgresDSN == "" {
			return fmt.Errorf("pgvector search provider requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown search provider: %s", c.Search.Provider)
	}

	switch c.LLM.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}

	if c.MaxPromptChars <= 0 {
		return fmt.Errorf("MAX_PROMPT_CHARS must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
