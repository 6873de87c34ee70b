// Package notion reads completed task pages from a Notion database and
// publishes finished reviews back as pages.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

const (
	// DefaultBaseURL is the public Notion API.
	DefaultBaseURL = "https://api.notion.com/v1"
	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"

	pageSize       = 100
	defaultTimeout = 30 * time.Second
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("notion temporarily unavailable")

// Config configures a Client.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
	Version    string
	Timeout    time.Duration
	// MaxRetries is the total number of attempts per request.
	MaxRetries int
	// RetryInterval is the first backoff delay; later delays grow
	// exponentially.
	RetryInterval time.Duration
	Schema        domain.RecordSchema
	// StatusFilter is the Notion filter type of the status property,
	// "select" or "status".
	StatusFilter string
	// FailureThreshold consecutive failed fetches open the breaker.
	FailureThreshold uint32
	// CooldownPeriod is how long the breaker stays open.
	CooldownPeriod time.Duration
}

// Client implements domain.RecordSource against the Notion database query
// endpoint.
type Client struct {
	http    *http.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker[[]domain.RawRecord]
	logger  *slog.Logger
}

var _ domain.RecordSource = (*Client)(nil)

// NewClient creates a Notion client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.StatusFilter == "" {
		cfg.StatusFilter = "select"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = time.Minute
	}

	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
				Base:   http.DefaultTransport,
			},
		},
		cfg:    cfg,
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]domain.RawRecord](gobreaker.Settings{
		Name:    "notion",
		Timeout: cfg.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c, nil
}

// FetchCompleted queries every completed page planned between the calendar
// days of from and to, following pagination cursors.
func (c *Client) FetchCompleted(ctx context.Context, from, to time.Time) ([]domain.RawRecord, error) {
	records, err := c.breaker.Execute(func() ([]domain.RawRecord, error) {
		return c.queryAll(ctx, from, to)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "notion records fetched",
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"count", len(records),
	)
	return records, nil
}

type queryRequest struct {
	Filter      map[string]any   `json:"filter"`
	Sorts       []map[string]any `json:"sorts"`
	PageSize    int              `json:"page_size"`
	StartCursor string           `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []domain.RawRecord `json:"results"`
	HasMore    bool               `json:"has_more"`
	NextCursor *string            `json:"next_cursor"`
}

func (c *Client) queryAll(ctx context.Context, from, to time.Time) ([]domain.RawRecord, error) {
	schema := c.cfg.Schema
	req := queryRequest{
		Filter: map[string]any{"and": []map[string]any{
			{"property": schema.DateProperty, "date": map[string]any{"on_or_after": from.Format(time.DateOnly)}},
			{"property": schema.DateProperty, "date": map[string]any{"on_or_before": to.Format(time.DateOnly)}},
			{"property": schema.StatusProperty, c.cfg.StatusFilter: map[string]any{"equals": schema.DoneLabel}},
		}},
		Sorts:    []map[string]any{{"property": schema.DateProperty, "direction": "ascending"}},
		PageSize: pageSize,
	}

	records := []domain.RawRecord{}
	for {
		page, err := c.queryPage(ctx, req)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Results...)
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			return records, nil
		}
		req.StartCursor = *page.NextCursor
	}
}

func (c *Client) queryPage(ctx context.Context, query queryRequest) (*queryResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/databases/%s/query", c.cfg.BaseURL, c.cfg.DatabaseID)

	return withRetry(ctx, c, func() (*queryResponse, error) {
		var out queryResponse
		if err := c.post(ctx, url, body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func withRetry[T any](ctx context.Context, c *Client, op backoff.Operation[T]) (T, error) {
	b := backoff.NewExponentialBackOff()
	if c.cfg.RetryInterval > 0 {
		b.InitialInterval = c.cfg.RetryInterval
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.WarnContext(ctx, "notion request failed, retrying", "error", err, "retry_in", next)
		}),
	)
}

// post sends a JSON body and decodes a 2xx response into out. Client errors
// other than 429 are not retried.
func (c *Client) post(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.cfg.Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode notion response: %w", err))
	}
	return nil
}

// APIError is a non-2xx Notion response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("notion api: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return backoff.RetryAfter(secs)
		}
		return apiErr
	case resp.StatusCode >= 500:
		return apiErr
	default:
		return backoff.Permanent(apiErr)
	}
}
