package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment driven configuration for the docuchat server.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"docuchat-server"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"DOCUCHAT_PORT" envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenAI-compatible LLM / embeddings backend
	OpenAIBaseURL   string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey    string  `env:"OPENAI_API_KEY,notEmpty"`
	ChatModel       string  `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel  string  `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	ChatTemperature float64 `env:"CHAT_TEMPERATURE" envDefault:"0.2"`

	// Qdrant vector store
	QdrantURL     string        `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantAPIKey  string        `env:"QDRANT_API_KEY"`
	QdrantTimeout time.Duration `env:"QDRANT_TIMEOUT" envDefault:"15s"`

	// Indexing
	ChunkSize        int `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap     int `env:"CHUNK_OVERLAP" envDefault:"200"`
	RetrievalTopK    int `env:"RETRIEVAL_TOP_K" envDefault:"3"`
	VectorDimensions int `env:"VECTOR_DIMENSIONS" envDefault:"0"` // 0 = probe at startup

	// Uploads
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxFileSizeMB int64  `env:"MAX_FILE_SIZE_MB" envDefault:"30"`

	// CORS
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173,http://127.0.0.1:3000"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.OpenAIBaseURL = strings.TrimSpace(cfg.OpenAIBaseURL)
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.QdrantURL = strings.TrimRight(strings.TrimSpace(cfg.QdrantURL), "/")

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = 3
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 30
	}
	if cfg.QdrantURL == "" {
		return nil, fmt.Errorf("QDRANT_URL must not be empty")
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// MaxFileBytes returns the upload size cap in bytes.
func (c *Config) MaxFileBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}
