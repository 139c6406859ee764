package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"3002"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Database settings
	Database DatabaseConfig

	// Bearer-token authentication
	Auth AuthConfig

	// Embeddings provider configuration
	Embeddings EmbeddingsConfig

	// Indexing pipeline configuration
	Indexing IndexingConfig

	// Scheduler trigger thresholds
	Scheduler SchedulerConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"inkwell"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"inkwell"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// AuthConfig holds bearer-token authentication settings
type AuthConfig struct {
	// JWTSecret signs and verifies user access tokens (HS256)
	JWTSecret string `env:"AUTH_JWT_SECRET" envDefault:""`

	// InternalToken gates internal endpoints used by workers and
	// operational tooling. Empty disables the internal API.
	InternalToken string `env:"INTERNAL_API_TOKEN" envDefault:""`
}

// EmbeddingsConfig holds embedding provider configuration
type EmbeddingsConfig struct {
	// Provider: "openai" (OpenAI-compatible HTTP API) or "noop"
	Provider string `env:"EMBEDDINGS_PROVIDER" envDefault:"noop"`

	// BaseURL of the OpenAI-compatible embeddings endpoint
	BaseURL string `env:"EMBEDDINGS_BASE_URL" envDefault:"https://api.openai.com/v1"`

	// APIKey for the embeddings endpoint
	APIKey string `env:"EMBEDDINGS_API_KEY" envDefault:""`

	// Model name sent with each request
	Model string `env:"EMBEDDINGS_MODEL" envDefault:"text-embedding-3-small"`

	// Dimension of returned vectors
	Dimension int `env:"EMBEDDINGS_DIMENSION" envDefault:"768"`

	// RequestsPerMinute caps outbound embedding calls
	RequestsPerMinute int `env:"EMBEDDINGS_RPM" envDefault:"300"`

	// Timeout per embeddings request
	Timeout time.Duration `env:"EMBEDDINGS_TIMEOUT" envDefault:"30s"`
}

// IsEnabled returns true if a real embeddings provider is configured
func (e *EmbeddingsConfig) IsEnabled() bool {
	return e.Provider == "openai" && e.APIKey != ""
}

// IndexingConfig holds embedding pipeline settings
type IndexingConfig struct {
	// WorkerInterval is the polling interval for ready tasks
	WorkerInterval time.Duration `env:"INDEXING_WORKER_INTERVAL" envDefault:"5s"`

	// WorkerBatchSize is the number of tasks claimed per poll
	WorkerBatchSize int `env:"INDEXING_WORKER_BATCH_SIZE" envDefault:"5"`

	// ChunkSize is the maximum chunk length in characters
	ChunkSize int `env:"INDEXING_CHUNK_SIZE" envDefault:"2000"`

	// ChunkOverlap is the character overlap between adjacent chunks
	ChunkOverlap int `env:"INDEXING_CHUNK_OVERLAP" envDefault:"200"`

	// EmbedBatchSize is the number of chunks sent per embeddings request
	EmbedBatchSize int `env:"INDEXING_EMBED_BATCH_SIZE" envDefault:"64"`
}

// SchedulerConfig holds bulk trigger thresholds
type SchedulerConfig struct {
	// Enabled turns the cron scheduler on
	Enabled bool `env:"SCHEDULER_ENABLED" envDefault:"true"`

	// Interval between trigger sweeps
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"30s"`

	// DebounceWindow is how long a debounced task must be quiet before promotion
	DebounceWindow time.Duration `env:"SCHEDULER_DEBOUNCE_WINDOW" envDefault:"2m"`

	// RetryCooldown is how long a failed task waits before retry
	RetryCooldown time.Duration `env:"SCHEDULER_RETRY_COOLDOWN" envDefault:"5m"`

	// MaxRetries is the retry ceiling for failed tasks
	MaxRetries int `env:"SCHEDULER_MAX_RETRIES" envDefault:"3"`

	// StuckThreshold is how long a ready task may sit unprocessed before
	// it is failed as stuck
	StuckThreshold time.Duration `env:"SCHEDULER_STUCK_THRESHOLD" envDefault:"15m"`
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("db_host", cfg.Database.Host),
		slog.String("embeddings_provider", cfg.Embeddings.Provider),
	)

	return cfg, nil
}
