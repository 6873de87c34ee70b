package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/GiveMeAjob-job/Bear-Review/adapter/api"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/infrastructure/delivery"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/infrastructure/llm"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/infrastructure/notion"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/infrastructure/persistence"
	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/convert"
	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/database"
	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/eventbus"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/config"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// ErrNotionNotConfigured is returned when the container would have no
// record source.
var ErrNotionNotConfigured = errors.New("notion not configured: set NOTION_TOKEN and NOTION_DB_ID")

// ErrLLMNotConfigured is returned by the placeholder chat client when no
// API key is set.
var ErrLLMNotConfigured = errors.New("llm not configured: set DEEPSEEK_KEY or OPENAI_KEY")

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability
	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry

	// Mirror database
	DBConn database.Connection
	Mirror *persistence.RecordStore

	// Redis
	RedisClient *redis.Client

	// Publishers
	EventPublisher eventbus.Publisher

	// Collaborators
	Notion    *notion.Client
	Chat      domain.ChatClient
	Notifiers []domain.Notifier

	// Application
	ReviewService *application.Service
	APIServer     *api.Server
}

// NewContainer creates a new dependency injection container. Optional
// infrastructure (Redis, RabbitMQ, the mirror database) that fails to
// connect is logged and left out.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(prometheus.NewRegistry()),
		Health:  observability.NewHealthRegistry(),
	}

	schema := domain.DefaultRecordSchema()
	classifier := domain.NewClassifier(classifierConfig(cfg.Classifier))

	if cfg.NotionConfigured() {
		threshold, err := convert.IntToUint32(cfg.BreakerThreshold)
		if err != nil {
			return nil, fmt.Errorf("invalid breaker threshold: %w", err)
		}
		client, err := notion.NewClient(notion.Config{
			Token:            cfg.NotionToken,
			DatabaseID:       cfg.NotionDatabaseID,
			BaseURL:          cfg.NotionBaseURL,
			Version:          cfg.NotionVersion,
			Timeout:          cfg.RequestTimeout,
			MaxRetries:       cfg.MaxRetries,
			Schema:           schema,
			StatusFilter:     cfg.NotionStatusFilter,
			FailureThreshold: threshold,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create notion client: %w", err)
		}
		c.Notion = client
	}

	if err := c.initMirror(ctx, schema); err != nil {
		if cfg.RecordSource == config.SourceMirror {
			return nil, err
		}
		logger.Warn("mirror database unavailable, mirror command disabled", observability.ErrorKey, err)
	}

	var source, upstream domain.RecordSource
	switch {
	case cfg.RecordSource == config.SourceMirror:
		source = c.Mirror
		if c.Notion != nil {
			upstream = c.Notion
		}
	case c.Notion != nil:
		source = c.Notion
	default:
		c.Close()
		return nil, ErrNotionNotConfigured
	}

	if err := c.initChat(logger); err != nil {
		c.Close()
		return nil, err
	}

	c.initRedis(ctx)
	c.initPublisher()
	c.Notifiers = c.buildNotifiers()

	deps := application.Dependencies{
		Source:           source,
		Upstream:         upstream,
		Chat:             c.Chat,
		Notifiers:        c.Notifiers,
		Normalizer:       domain.NewNormalizer(schema, domain.WithDateLocation(cfg.Location)),
		Aggregator:       domain.NewAggregator(classifier, cfg.Location),
		FocusGoal:        cfg.FocusGoal,
		FetchConcurrency: cfg.FetchConcurrency,
		Logger:           logger,
		Metrics:          c.Metrics,
	}
	// A nil *RecordStore must not become a non-nil interface.
	if c.Mirror != nil && (cfg.RecordSource != config.SourceMirror || upstream != nil) {
		deps.Mirror = c.Mirror
	}
	c.ReviewService = application.NewService(deps)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.APIAddr
	serverCfg.Location = cfg.Location
	c.APIServer = api.NewServer(serverCfg, c.ReviewService, c.Health, c.Metrics.Registry(), logger)

	return c, nil
}

func (c *Container) initMirror(ctx context.Context, schema domain.RecordSchema) error {
	store, conn, err := OpenMirror(ctx, c.Config, schema, c.Config.Location)
	if err != nil {
		return err
	}
	c.Mirror = store
	c.DBConn = conn
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusDegraded, conn.Ping))
	c.Logger.Info("mirror database ready", "driver", conn.Driver().String())
	return nil
}

func (c *Container) initChat(logger *slog.Logger) error {
	key := c.Config.LLMAPIKey()
	if key == "" {
		logger.Warn("no LLM API key configured, report generation disabled")
		c.Chat = unconfiguredChat{}
		return nil
	}
	baseURL, model := c.Config.LLMEndpoint()
	client, err := llm.NewClient(llm.Config{APIKey: key, BaseURL: baseURL, Model: model}, logger)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	c.Chat = client
	logger.Info("llm client ready", "provider", c.Config.LLMProvider, "model", model)
	return nil
}

func (c *Container) initRedis(ctx context.Context) {
	if c.Config.RedisURL == "" {
		return
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, delivery dedupe disabled", observability.ErrorKey, err)
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("failed to connect to Redis, delivery dedupe disabled", observability.ErrorKey, err)
		_ = client.Close()
		return
	}
	c.RedisClient = client
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
}

func (c *Container) initPublisher() {
	if c.Config.RabbitMQURL == "" {
		return
	}
	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Config.ReportExchange, c.Logger)
	if err != nil {
		c.Logger.Warn("failed to connect to RabbitMQ, broker delivery disabled", observability.ErrorKey, err)
		return
	}
	c.EventPublisher = publisher
}

// buildNotifiers returns every configured delivery channel. Console always
// comes first. With Redis, each channel is wrapped in a deduper.
func (c *Container) buildNotifiers() []domain.Notifier {
	cfg := c.Config
	notifiers := []domain.Notifier{delivery.NewConsoleNotifier(os.Stdout)}

	if cfg.TelegramBotToken != "" && len(cfg.TelegramChatIDs) > 0 {
		notifiers = append(notifiers, delivery.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatIDs, c.Logger))
	}
	if cfg.EmailConfigured() {
		notifiers = append(notifiers, delivery.NewEmailNotifier(delivery.EmailConfig{
			Server:   cfg.EmailSMTPServer,
			Port:     cfg.EmailSMTPPort,
			Username: cfg.EmailUsername,
			Password: cfg.EmailPassword,
			To:       cfg.EmailTo,
			Timeout:  cfg.RequestTimeout,
		}, c.Logger))
	}
	if c.Notion != nil && cfg.NotionReviewParentID != "" {
		notifiers = append(notifiers, notion.NewPagePublisher(c.Notion, cfg.NotionReviewParentID))
	}
	if c.EventPublisher != nil {
		notifiers = append(notifiers, delivery.NewBrokerNotifier(c.EventPublisher))
	}

	if c.RedisClient == nil {
		return notifiers
	}
	deduped := make([]domain.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n.Name() == "console" {
			deduped = append(deduped, n)
			continue
		}
		deduped = append(deduped, delivery.NewDedupeNotifier(n, c.RedisClient, cfg.DedupeTTL, c.Logger))
	}
	return deduped
}

// Close releases all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Error("failed to close event publisher", observability.ErrorKey, err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error("failed to close Redis client", observability.ErrorKey, err)
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Error("failed to close database connection", observability.ErrorKey, err)
		}
	}
}

func classifierConfig(s config.ClassifierSettings) domain.ClassifierConfig {
	cfg := domain.DefaultClassifierConfig()
	if s.SleepKeywords != nil {
		cfg.SleepKeywords = s.SleepKeywords
	}
	if s.LeisureKeywords != nil {
		cfg.LeisureKeywords = s.LeisureKeywords
	}
	if s.LeisureCategories != nil {
		cfg.LeisureCategories = s.LeisureCategories
	}
	return cfg
}

// unconfiguredChat lets stats and trend work without an LLM key.
type unconfiguredChat struct{}

func (unconfiguredChat) Complete(context.Context, string, string) (string, error) {
	return "", ErrLLMNotConfigured
}
