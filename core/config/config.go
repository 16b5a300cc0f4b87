// Package config loads process configuration from environment variables,
// grounded on the teacher's core/config package (env-var loading with
// sensible development defaults, an OTelConfig sub-struct, Is*
// environment predicates).
package config

import (
	"fmt"
	"os"
	"strconv"

	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/core/db"
)

// ServiceType distinguishes the two process entry points, mirroring the
// teacher's config.ServiceType(Server|Worker) split.
type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// EngineConfig configures the engine process pool (spec §4.3/§A.3).
type EngineConfig struct {
	BinaryPath      string
	PoolSize        int
	DefaultD2Depth  int
	DefaultD16Depth int
	MultiPV         int
	AnalysisTimeout int // seconds
}

// RedisConfig configures the analysis cache and engine-queue streams.
type RedisConfig struct {
	URL               string
	CacheTTLSeconds   int
	EngineQueueStream string
	EngineQueueGroup  string
	EngineConsumer    string
	DLQStream         string
}

// ControllerConfig bounds one task run (spec §4.8 budget enforcement).
type ControllerConfig struct {
	StepBudget         int
	TimeBudgetSeconds  float64
}

// PlanGraphConfig configures the ArangoDB-backed plan audit store. Empty URL
// disables plan persistence (optional, audit-only feature).
type PlanGraphConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c PlanGraphConfig) Enabled() bool { return c.URL != "" }

// SearchIndexConfig configures the Typesense-backed motif index. Empty URL
// disables chat-fallback motif citation (optional).
type SearchIndexConfig struct {
	URL    string
	APIKey string
}

func (c SearchIndexConfig) Enabled() bool { return c.URL != "" }

// OTelConfig configures OpenTelemetry export, unchanged in shape from the
// teacher (common/otel and common/logger both key off it).
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Headers        string
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Config holds all process configuration.
type Config struct {
	Env  string
	Port string

	DB    db.Config
	OTel  OTelConfig
	Redis RedisConfig
	Engine EngineConfig
	Controller ControllerConfig
	PlanGraph   PlanGraphConfig
	SearchIndex SearchIndexConfig

	// IntentLLM classifies chat turns (spec §4.8 step 2).
	IntentLLM llm.Config
	// PlannerLLM drafts execution plans (spec §4.6).
	PlannerLLM llm.Config
	// WriterLLM produces justification/explanation text (spec §4.8 steps 7-8).
	WriterLLM llm.Config

	AdminAPIKey string
}

// Load loads configuration from environment variables, applying
// development-friendly defaults so the server/worker binaries can run
// against a local Redis/Postgres/engine binary with no other configuration
// than INTENT_LLM_API_KEY, which the server process requires.
func Load(svc ServiceType) (Config, error) {
	cfg := Config{
		Env:  getEnv("SENTINEL_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      buildDSN(),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		OTel: OTelConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "sentinel-"+string(svc)),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
			CacheTTLSeconds:   getEnvInt("ANALYSIS_CACHE_TTL_SECONDS", 3600),
			EngineQueueStream: getEnv("ENGINE_QUEUE_STREAM", "sentinel:engine-queue"),
			EngineQueueGroup:  getEnv("ENGINE_QUEUE_GROUP", "sentinel-workers"),
			EngineConsumer:    getEnv("ENGINE_QUEUE_CONSUMER", hostnameOr("worker-1")),
			DLQStream:         getEnv("ENGINE_QUEUE_DLQ_STREAM", "sentinel:engine-queue-dlq"),
		},
		Engine: EngineConfig{
			BinaryPath:      getEnv("ENGINE_BINARY_PATH", "stockfish"),
			PoolSize:        getEnvInt("ENGINE_POOL_SIZE", 4),
			DefaultD2Depth:  getEnvInt("ENGINE_DEFAULT_D2_DEPTH", 2),
			DefaultD16Depth: getEnvInt("ENGINE_DEFAULT_D16_DEPTH", 16),
			MultiPV:         getEnvInt("ENGINE_MULTI_PV", 5),
			AnalysisTimeout: getEnvInt("ENGINE_ANALYSIS_TIMEOUT_SECONDS", 10),
		},
		Controller: ControllerConfig{
			StepBudget:        getEnvInt("CONTROLLER_STEP_BUDGET", 24),
			TimeBudgetSeconds: getEnvFloat("CONTROLLER_TIME_BUDGET_SECONDS", 45),
		},
		PlanGraph: PlanGraphConfig{
			URL:      getEnv("ARANGODB_URL", ""),
			Username: getEnv("ARANGODB_USERNAME", "root"),
			Password: getEnv("ARANGODB_PASSWORD", ""),
			Database: getEnv("ARANGODB_DATABASE", "sentinel_plans"),
		},
		SearchIndex: SearchIndexConfig{
			URL:    getEnv("TYPESENSE_URL", ""),
			APIKey: getEnv("TYPESENSE_API_KEY", ""),
		},
		IntentLLM: llm.Config{
			APIKey:  getEnv("INTENT_LLM_API_KEY", ""),
			BaseURL: getEnv("INTENT_LLM_BASE_URL", ""),
			Model:   getEnv("INTENT_LLM_MODEL", "gpt-4o-mini"),
		},
		PlannerLLM: llm.Config{
			APIKey:  getEnv("PLANNER_LLM_API_KEY", ""),
			BaseURL: getEnv("PLANNER_LLM_BASE_URL", ""),
			Model:   getEnv("PLANNER_LLM_MODEL", "gpt-4o"),
		},
		WriterLLM: llm.Config{
			APIKey:  getEnv("WRITER_LLM_API_KEY", ""),
			BaseURL: getEnv("WRITER_LLM_BASE_URL", ""),
			Model:   getEnv("WRITER_LLM_MODEL", "gpt-4o-mini"),
		},
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}
	if svc == ServiceTypeServer && cfg.IntentLLM.APIKey == "" {
		return cfg, fmt.Errorf("config: INTENT_LLM_API_KEY is required for the server process")
	}
	return cfg, nil
}

// buildDSN constructs the database connection string from individual env vars.
func buildDSN() string {
	host := getEnv("DATABASE_HOST", "localhost")
	port := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USER", "postgres")
	password := getEnv("DATABASE_PASSWORD", "postgres")
	name := getEnv("DATABASE_NAME", "sentinel")
	sslMode := getEnv("DATABASE_SSLMODE", "disable")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslMode,
	)
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func hostnameOr(fallback string) string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return fallback
}
