package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars blanks every variable Load reads for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"REVIEW_ENV", "REVIEW_LOG_LEVEL",
		"NOTION_TOKEN", "NOTION_DB_ID", "NOTION_BASE_URL", "NOTION_VERSION",
		"NOTION_STATUS_FILTER", "NOTION_REVIEW_PARENT_ID", "REVIEW_SOURCE",
		"REVIEW_TIMEZONE", "REVIEW_MAX_RETRIES", "REVIEW_FETCH_CONCURRENCY", "REVIEW_REQUEST_TIMEOUT", "REVIEW_BREAKER_THRESHOLD",
		"CLASSIFIER_CONFIG", "SLEEP_KEYWORDS", "LEISURE_KEYWORDS", "LEISURE_CATEGORIES",
		"LLM_PROVIDER", "DEEPSEEK_KEY", "OPENAI_KEY", "LLM_MODEL", "LLM_BASE_URL", "FOCUS_GOAL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID_2",
		"EMAIL_SMTP_SERVER", "EMAIL_SMTP_PORT", "EMAIL_USERNAME", "EMAIL_PASSWORD", "EMAIL_TO",
		"RABBITMQ_URL", "REPORT_EXCHANGE", "REDIS_URL", "DEDUPE_TTL",
		"DATABASE_URL", "DATABASE_MAX_CONNS", "SQLITE_PATH", "API_ADDR",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, DefaultNotionBaseURL, cfg.NotionBaseURL)
	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
	assert.Equal(t, DefaultStatusFilter, cfg.NotionStatusFilter)
	assert.Empty(t, cfg.NotionReviewParentID)
	assert.Equal(t, SourceNotion, cfg.RecordSource)
	assert.False(t, cfg.NotionConfigured())

	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "America/Toronto", cfg.Location.String())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.BreakerThreshold)
	assert.Equal(t, 4, cfg.DatabaseMaxConns)

	assert.Equal(t, ProviderDeepSeek, cfg.LLMProvider)
	assert.Equal(t, DefaultFocusGoal, cfg.FocusGoal)
	assert.Nil(t, cfg.TelegramChatIDs)
	assert.Equal(t, DefaultReportExchange, cfg.ReportExchange)
	assert.Equal(t, 36*time.Hour, cfg.DedupeTTL)
	assert.False(t, cfg.UsesPostgres())
	assert.Contains(t, cfg.SQLitePath, "mirror.db")
	assert.Equal(t, "127.0.0.1:8080", cfg.APIAddr)

	assert.Nil(t, cfg.Classifier.SleepKeywords)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("REVIEW_ENV", "production")
	t.Setenv("NOTION_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("REVIEW_TIMEZONE", "Asia/Shanghai")
	t.Setenv("REVIEW_MAX_RETRIES", "5")
	t.Setenv("REVIEW_FETCH_CONCURRENCY", "8")
	t.Setenv("TELEGRAM_CHAT_ID", "111, 222")
	t.Setenv("TELEGRAM_CHAT_ID_2", "222,333")
	t.Setenv("DATABASE_URL", "postgres://review@localhost/review")
	t.Setenv("DEDUPE_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:9999/v1", cfg.NotionBaseURL)
	assert.Equal(t, "Asia/Shanghai", cfg.Location.String())
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.TelegramChatIDs)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, 2*time.Hour, cfg.DedupeTTL)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad integers fall back to defaults", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("REVIEW_MAX_RETRIES", "many")
		t.Setenv("REVIEW_FETCH_CONCURRENCY", "0")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3, cfg.MaxRetries)
		assert.Equal(t, 1, cfg.FetchConcurrency)
	})

	t.Run("unknown timezone is an error", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("REVIEW_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidTimezone)
	})
}

func TestLoad_LLMProvider(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		deepSeekKey string
		openAIKey   string
		want        string
		wantURL     string
		wantModel   string
	}{
		{"explicit wins", "OpenAI", "ds", "", ProviderOpenAI, "", DefaultOpenAIModel},
		{"deepseek key", "", "ds", "oa", ProviderDeepSeek, DefaultDeepSeekURL, DefaultDeepSeekModel},
		{"openai key only", "", "", "oa", ProviderOpenAI, "", DefaultOpenAIModel},
		{"nothing set", "", "", "", ProviderDeepSeek, DefaultDeepSeekURL, DefaultDeepSeekModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("LLM_PROVIDER", tt.provider)
			t.Setenv("DEEPSEEK_KEY", tt.deepSeekKey)
			t.Setenv("OPENAI_KEY", tt.openAIKey)

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.want, cfg.LLMProvider)
			baseURL, model := cfg.LLMEndpoint()
			assert.Equal(t, tt.wantURL, baseURL)
			assert.Equal(t, tt.wantModel, model)
		})
	}

	t.Run("api key follows provider", func(t *testing.T) {
		cfg := &Config{LLMProvider: ProviderOpenAI, OpenAIKey: "oa", DeepSeekKey: "ds"}
		assert.Equal(t, "oa", cfg.LLMAPIKey())
		cfg.LLMProvider = ProviderDeepSeek
		assert.Equal(t, "ds", cfg.LLMAPIKey())
	})

	t.Run("model override", func(t *testing.T) {
		cfg := &Config{LLMProvider: ProviderDeepSeek, LLMModel: "deepseek-chat", LLMBaseURL: "http://proxy"}
		baseURL, model := cfg.LLMEndpoint()
		assert.Equal(t, "http://proxy", baseURL)
		assert.Equal(t, "deepseek-chat", model)
	})
}

func TestLoad_Classifier(t *testing.T) {
	t.Run("reads YAML file", func(t *testing.T) {
		clearEnvVars(t)
		path := filepath.Join(t.TempDir(), "classifier.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"sleep_keywords: [sleep, rest]\nleisure_categories:\n  - fun\n"), 0o600))
		t.Setenv("CLASSIFIER_CONFIG", path)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"sleep", "rest"}, cfg.Classifier.SleepKeywords)
		assert.Equal(t, []string{"fun"}, cfg.Classifier.LeisureCategories)
		assert.Nil(t, cfg.Classifier.LeisureKeywords)
	})

	t.Run("env lists override file", func(t *testing.T) {
		clearEnvVars(t)
		path := filepath.Join(t.TempDir(), "classifier.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sleep_keywords: [sleep]\n"), 0o600))
		t.Setenv("CLASSIFIER_CONFIG", path)
		t.Setenv("SLEEP_KEYWORDS", "bed, doze")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"bed", "doze"}, cfg.Classifier.SleepKeywords)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("CLASSIFIER_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sleep_keywords: [unterminated"), 0o600))

		_, err := LoadClassifierFile(path)
		assert.Error(t, err)
	})
}

func TestLoad_NotionOptions(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("NOTION_TOKEN", "secret")
	t.Setenv("NOTION_DB_ID", "db-1")
	t.Setenv("NOTION_STATUS_FILTER", "Status")
	t.Setenv("NOTION_REVIEW_PARENT_ID", "parent-1")
	t.Setenv("REVIEW_SOURCE", "Mirror")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.NotionConfigured())
	assert.Equal(t, "status", cfg.NotionStatusFilter)
	assert.Equal(t, "parent-1", cfg.NotionReviewParentID)
	assert.Equal(t, SourceMirror, cfg.RecordSource)
}

func TestLoad_InvalidRecordSource(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("REVIEW_SOURCE", "spreadsheet")

	_, err := Load()

	assert.ErrorContains(t, err, "REVIEW_SOURCE")
}

func TestLoad_Email(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnvVars(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.False(t, cfg.EmailConfigured())
		assert.Equal(t, 587, cfg.EmailSMTPPort)
		assert.Nil(t, cfg.EmailTo)
	})

	t.Run("configured", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("EMAIL_SMTP_SERVER", "smtp.example.com")
		t.Setenv("EMAIL_SMTP_PORT", "2525")
		t.Setenv("EMAIL_USERNAME", "me@example.com")
		t.Setenv("EMAIL_PASSWORD", "app-password")
		t.Setenv("EMAIL_TO", "a@example.com, b@example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.EmailConfigured())
		assert.Equal(t, "smtp.example.com", cfg.EmailSMTPServer)
		assert.Equal(t, 2525, cfg.EmailSMTPPort)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.EmailTo)
	})

	t.Run("password is required", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("EMAIL_SMTP_SERVER", "smtp.example.com")
		t.Setenv("EMAIL_USERNAME", "me@example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.False(t, cfg.EmailConfigured())
	})
}
