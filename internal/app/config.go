package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/maia-backend/internal/clients/redis"
	"github.com/yungbote/maia-backend/internal/data/db"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/envutil"
)

type Config struct {
	Mode           string        `yaml:"mode"`
	Port           string        `yaml:"port"`
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	CORSOrigins    string        `yaml:"cors_origins"`

	DB        db.Config                `yaml:"db"`
	Assistant assistant.Config         `yaml:"assistant"`
	Redis     redis.Config             `yaml:"redis"`
	Tracing   observability.OtelConfig `yaml:"tracing"`

	SystemPromptPath string `yaml:"system_prompt_path"`
	KnowledgeDocsDir string `yaml:"knowledge_docs_dir"`

	ChatRateLimitPerMinute int  `yaml:"chat_rate_limit_per_minute"`
	MetricsEnabled         bool `yaml:"metrics_enabled"`
}

func defaultConfig() Config {
	return Config{
		Mode:           "development",
		Port:           "8080",
		JWTSecretKey:   "defaultsecret",
		AccessTokenTTL: 30 * time.Minute,
		DB: db.Config{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Name:       "maia",
			SSLMode:    "disable",
			SQLitePath: "maia.db",
		},
		Assistant: assistant.Config{
			BaseURL: "https://app.backboard.io/api",
			Timeout: 60 * time.Second,
			Retries: 2,
		},
		Tracing:                observability.OtelConfig{SampleRatio: 0.1},
		SystemPromptPath:       "prompts/system.md",
		KnowledgeDocsDir:       "knowledge",
		ChatRateLimitPerMinute: 20,
	}
}

// LoadConfig starts from defaults, overlays the YAML file at path (if any),
// then applies environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Mode = envutil.String("LOG_MODE", cfg.Mode)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = time.Duration(envutil.Int("ACCESS_TOKEN_TTL", int(cfg.AccessTokenTTL/time.Second))) * time.Second
	cfg.CORSOrigins = envutil.String("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Assistant.BaseURL = envutil.String("BACKBOARD_BASE_URL", cfg.Assistant.BaseURL)
	cfg.Assistant.APIKey = envutil.String("BACKBOARD_API_KEY", cfg.Assistant.APIKey)
	cfg.Assistant.Timeout = time.Duration(envutil.Int("ASSISTANT_TIMEOUT_SECONDS", int(cfg.Assistant.Timeout/time.Second))) * time.Second
	cfg.Assistant.Retries = envutil.Int("ASSISTANT_RETRIES", cfg.Assistant.Retries)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	cfg.Tracing.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Tracing.SampleRatio)
	if h := observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")); h != nil {
		cfg.Tracing.Headers = h
	}

	cfg.SystemPromptPath = envutil.String("SYSTEM_PROMPT_PATH", cfg.SystemPromptPath)
	cfg.KnowledgeDocsDir = envutil.String("KNOWLEDGE_DOCS_DIR", cfg.KnowledgeDocsDir)
	cfg.ChatRateLimitPerMinute = envutil.Int("CHAT_RATE_LIMIT_PER_MINUTE", cfg.ChatRateLimitPerMinute)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}
