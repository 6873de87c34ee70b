// Package delivery sends finished reviews to their readers.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

const (
	defaultTelegramURL = "https://api.telegram.org"
	// telegramLimit leaves headroom under the 4096 character message cap.
	telegramLimit = 4000
	// telegramTries is one attempt plus two retries.
	telegramTries = 3
)

// TelegramNotifier pushes a plain text report to one or more chats through
// the Bot API.
type TelegramNotifier struct {
	client        *http.Client
	baseURL       string
	token         string
	chatIDs       []string
	maxTries      uint
	retryInterval time.Duration
	logger        *slog.Logger
}

var _ domain.Notifier = (*TelegramNotifier)(nil)

// TelegramOption customizes a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramBaseURL points the notifier at another Bot API host.
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(n *TelegramNotifier) {
		if baseURL != "" {
			n.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTelegramRetry sets how many attempts a chat gets and the first pause
// between them.
func WithTelegramRetry(maxTries uint, interval time.Duration) TelegramOption {
	return func(n *TelegramNotifier) {
		if maxTries > 0 {
			n.maxTries = maxTries
		}
		if interval > 0 {
			n.retryInterval = interval
		}
	}
}

// NewTelegramNotifier creates a notifier for the bot token and chat IDs.
func NewTelegramNotifier(token string, chatIDs []string, logger *slog.Logger, opts ...TelegramOption) *TelegramNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &TelegramNotifier{
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       defaultTelegramURL,
		token:         token,
		chatIDs:       chatIDs,
		maxTries:      telegramTries,
		retryInterval: time.Second,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the report to every chat. A failing chat does not stop the
// others; all failures are returned together.
func (n *TelegramNotifier) Notify(ctx context.Context, report domain.Report) error {
	if n.token == "" || len(n.chatIDs) == 0 {
		return fmt.Errorf("telegram bot token and chat id are required")
	}
	text := FormatTelegramMessage(report.Title, report.Body)

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := n.send(ctx, chatID, text); err != nil {
			n.logger.ErrorContext(ctx, "telegram send failed", "chat_id", chatID, "error", err)
			errs = append(errs, fmt.Errorf("chat %s: %w", chatID, err))
			continue
		}
		n.logger.InfoContext(ctx, "telegram message sent", "chat_id", chatID)
	}
	return errors.Join(errs...)
}

// FormatTelegramMessage renders a title header above the body, both
// stripped of Markdown, and truncates the result to the message limit.
func FormatTelegramMessage(title, body string) string {
	msg := PlainText(body)
	if title != "" {
		msg = "📋 " + PlainText(title) + "\n" + strings.Repeat("─", 30) + "\n\n" + msg
	}
	return truncateRunes(msg, telegramLimit)
}

// send posts one message, retrying network failures, 5xx and 429 responses.
func (n *TelegramNotifier) send(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q", chatID)
	}
	body, err := json.Marshal(map[string]any{"chat_id": id, "text": text})
	if err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.retryInterval
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, n.post(ctx, body)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(n.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			n.logger.WarnContext(ctx, "telegram send failed, retrying", "chat_id", chatID, "error", err, "retry_in", next)
		}),
	)
	return err
}

func (n *TelegramNotifier) post(ctx context.Context, body []byte) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("telegram request: %w", uerr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	apiErr := fmt.Errorf("telegram api: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs := telegramRetryAfter(resp, raw); secs > 0 {
			return backoff.RetryAfter(secs)
		}
		return apiErr
	case resp.StatusCode >= 500:
		return apiErr
	default:
		return backoff.Permanent(apiErr)
	}
}

// telegramRetryAfter reads the wait hint from the header or from the
// parameters block of the Bot API error body.
func telegramRetryAfter(resp *http.Response, raw []byte) int {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return secs
	}
	var payload struct {
		Parameters struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		return payload.Parameters.RetryAfter
	}
	return 0
}
