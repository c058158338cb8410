package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultCompletionModel = "gpt-3.5-turbo"
	DefaultTopK            = 5
	DefaultBatchSize       = 10
	DefaultDimension       = 1536
)

// Error reports missing or invalid configuration. It is raised before
// any network call so a misconfigured deployment fails fast.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return "missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// Config holds everything the binaries need to wire providers.
type Config struct {
	OpenAIApiKey    string
	AnthropicApiKey string
	GoogleApiKey    string

	PineconeApiKey    string
	PineconeIndexHost string
	PostgresURL       string

	EmbeddingModel  string
	CompletionModel string
	TopK            int
	BatchSize       int
	Dimension       int
}

// Load reads configuration from the environment, consulting an
// optional .env file first. The file being absent is not an error.
func Load(envFile string) (*Config, error) {
	if len(envFile) > 0 {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		OpenAIApiKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicApiKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GoogleApiKey:      os.Getenv("GOOGLE_API_KEY"),
		PineconeApiKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexHost: os.Getenv("PINECONE_INDEX_HOST"),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		EmbeddingModel:    getEnv("FAQCHAT_EMBEDDING_MODEL", DefaultEmbeddingModel),
		CompletionModel:   getEnv("FAQCHAT_COMPLETION_MODEL", DefaultCompletionModel),
		TopK:              getEnvAsInt("FAQCHAT_TOP_K", DefaultTopK),
		BatchSize:         getEnvAsInt("FAQCHAT_BATCH_SIZE", DefaultBatchSize),
		Dimension:         getEnvAsInt("FAQCHAT_DIMENSION", DefaultDimension),
	}

	return cfg, nil
}

// RequirePinecone validates the variables the pinecone-backed
// deployment needs, mirroring the index host + keys checklist.
func (c *Config) RequirePinecone() error {
	var missing []string

	if len(c.OpenAIApiKey) == 0 {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(c.PineconeApiKey) == 0 {
		missing = append(missing, "PINECONE_API_KEY")
	}
	if len(c.PineconeIndexHost) == 0 {
		missing = append(missing, "PINECONE_INDEX_HOST")
	}

	if len(missing) > 0 {
		return &Error{Missing: missing}
	}

	return nil
}

// RequirePostgres validates the variables the pgvector-backed
// deployment needs.
func (c *Config) RequirePostgres() error {
	var missing []string

	if len(c.OpenAIApiKey) == 0 {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(c.PostgresURL) == 0 {
		missing = append(missing, "POSTGRES_URL")
	}

	if len(missing) > 0 {
		return &Error{Missing: missing}
	}

	return nil
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); len(value) > 0 {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
