package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/security"
)

// ErrInvalidTimezone is returned when REVIEW_TIMEZONE is not a known IANA zone.
var ErrInvalidTimezone = errors.New("invalid timezone")

// LLM providers.
const (
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
)

const (
	DefaultTimezone       = "America/Toronto"
	DefaultNotionBaseURL  = "https://api.notion.com/v1"
	DefaultNotionVersion  = "2022-06-28"
	DefaultDeepSeekURL    = "https://api.deepseek.com"
	DefaultDeepSeekModel  = "deepseek-reasoner"
	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultFocusGoal      = "保持高效且有序的一天"
	DefaultReportExchange = "bear_review.reports"
	DefaultStatusFilter   = "select"
)

// Record sources.
const (
	SourceNotion = "notion"
	SourceMirror = "mirror"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Notion
	NotionToken      string
	NotionDatabaseID string
	NotionBaseURL    string
	NotionVersion    string
	// NotionStatusFilter is the filter type of the status property,
	// "select" or "status".
	NotionStatusFilter string
	// NotionReviewParentID enables publishing reviews as pages under this
	// database.
	NotionReviewParentID string

	// RecordSource selects where statistics read from: SourceNotion or
	// SourceMirror.
	RecordSource string

	// Review engine
	Timezone         string
	Location         *time.Location
	MaxRetries       int
	FetchConcurrency int
	RequestTimeout   time.Duration
	// BreakerThreshold consecutive failed Notion fetches open the circuit.
	BreakerThreshold int

	// Classifier
	ClassifierConfigPath string
	Classifier           ClassifierSettings

	// LLM
	LLMProvider string
	DeepSeekKey string
	OpenAIKey   string
	LLMModel    string
	LLMBaseURL  string
	FocusGoal   string

	// Telegram
	TelegramBotToken string
	TelegramChatIDs  []string

	// Email
	EmailSMTPServer string
	EmailSMTPPort   int
	EmailUsername   string
	EmailPassword   string
	EmailTo         []string

	// RabbitMQ
	RabbitMQURL    string
	ReportExchange string

	// Redis
	RedisURL  string
	DedupeTTL time.Duration

	// Mirror database
	DatabaseURL      string
	DatabaseMaxConns int
	SQLitePath       string

	// HTTP API
	APIAddr string
}

// ClassifierSettings are the keyword lists for time-bucket classification.
// Nil lists mean "use the built-in defaults".
type ClassifierSettings struct {
	SleepKeywords     []string `yaml:"sleep_keywords"`
	LeisureKeywords   []string `yaml:"leisure_keywords"`
	LeisureCategories []string `yaml:"leisure_categories"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("REVIEW_ENV", "development"),
		LogLevel: getEnv("REVIEW_LOG_LEVEL", "info"),

		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DB_ID", ""),
		NotionBaseURL:    strings.TrimRight(getEnv("NOTION_BASE_URL", DefaultNotionBaseURL), "/"),
		NotionVersion:    getEnv("NOTION_VERSION", DefaultNotionVersion),

		NotionStatusFilter:   strings.ToLower(getEnv("NOTION_STATUS_FILTER", DefaultStatusFilter)),
		NotionReviewParentID: getEnv("NOTION_REVIEW_PARENT_ID", ""),
		RecordSource:         strings.ToLower(getEnv("REVIEW_SOURCE", SourceNotion)),

		Timezone:         getEnv("REVIEW_TIMEZONE", DefaultTimezone),
		MaxRetries:       getIntEnv("REVIEW_MAX_RETRIES", 3),
		FetchConcurrency: getIntEnv("REVIEW_FETCH_CONCURRENCY", 4),
		RequestTimeout:   getDurationEnv("REVIEW_REQUEST_TIMEOUT", 30*time.Second),
		BreakerThreshold: getIntEnv("REVIEW_BREAKER_THRESHOLD", 3),

		ClassifierConfigPath: getEnv("CLASSIFIER_CONFIG", ""),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", "")),
		DeepSeekKey: getEnv("DEEPSEEK_KEY", ""),
		OpenAIKey:   getEnv("OPENAI_KEY", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		FocusGoal:   getEnv("FOCUS_GOAL", DefaultFocusGoal),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs:  getListEnv("TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID_2"),

		EmailSMTPServer: getEnv("EMAIL_SMTP_SERVER", ""),
		EmailSMTPPort:   getIntEnv("EMAIL_SMTP_PORT", 587),
		EmailUsername:   getEnv("EMAIL_USERNAME", ""),
		EmailPassword:   getEnv("EMAIL_PASSWORD", ""),
		EmailTo:         getListEnv("EMAIL_TO"),

		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		ReportExchange: getEnv("REPORT_EXCHANGE", DefaultReportExchange),

		RedisURL:  getEnv("REDIS_URL", ""),
		DedupeTTL: getDurationEnv("DEDUPE_TTL", 36*time.Hour),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 4),
		SQLitePath:       getEnv("SQLITE_PATH", defaultSQLitePath()),

		APIAddr: getEnv("API_ADDR", "127.0.0.1:8080"),
	}

	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}

	if cfg.RecordSource != SourceNotion && cfg.RecordSource != SourceMirror {
		return nil, fmt.Errorf("invalid REVIEW_SOURCE %q: use %s or %s", cfg.RecordSource, SourceNotion, SourceMirror)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = detectProvider(cfg.DeepSeekKey, cfg.OpenAIKey)
	}

	if cfg.ClassifierConfigPath != "" {
		settings, err := LoadClassifierFile(cfg.ClassifierConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Classifier = settings
	}
	if v := getListEnv("SLEEP_KEYWORDS"); v != nil {
		cfg.Classifier.SleepKeywords = v
	}
	if v := getListEnv("LEISURE_KEYWORDS"); v != nil {
		cfg.Classifier.LeisureKeywords = v
	}
	if v := getListEnv("LEISURE_CATEGORIES"); v != nil {
		cfg.Classifier.LeisureCategories = v
	}

	return cfg, nil
}

// LoadClassifierFile reads classifier keyword lists from a YAML file.
func LoadClassifierFile(path string) (ClassifierSettings, error) {
	data, err := security.ReadFile(path)
	if err != nil {
		return ClassifierSettings{}, fmt.Errorf("read classifier config: %w", err)
	}
	var settings ClassifierSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return ClassifierSettings{}, fmt.Errorf("parse classifier config %s: %w", path, err)
	}
	return settings, nil
}

// EmailConfigured reports whether the SMTP channel has what it needs.
func (c *Config) EmailConfigured() bool {
	return c.EmailSMTPServer != "" && c.EmailUsername != "" && c.EmailPassword != ""
}

// NotionConfigured reports whether the Notion credentials are set.
func (c *Config) NotionConfigured() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LLMAPIKey returns the key of the selected provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.DeepSeekKey
}

// LLMEndpoint returns the base URL and model for the selected provider,
// applying explicit overrides first.
func (c *Config) LLMEndpoint() (baseURL, model string) {
	baseURL, model = c.LLMBaseURL, c.LLMModel
	switch c.LLMProvider {
	case ProviderOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
	default:
		if baseURL == "" {
			baseURL = DefaultDeepSeekURL
		}
		if model == "" {
			model = DefaultDeepSeekModel
		}
	}
	return baseURL, model
}

// UsesPostgres reports whether the mirror should use PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func detectProvider(deepSeekKey, openAIKey string) string {
	switch {
	case deepSeekKey != "":
		return ProviderDeepSeek
	case openAIKey != "":
		return ProviderOpenAI
	default:
		return ProviderDeepSeek
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnv merges comma-separated values of every key, dropping blanks
// and duplicates. Returns nil when nothing is set.
func getListEnv(keys ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, key := range keys {
		for _, part := range strings.Split(os.Getenv(key), ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bear-review/mirror.db"
	}
	return home + "/.bear-review/mirror.db"
}
