package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

const dedupeKeyPrefix = "bear-review:delivered"

// markerStore is the part of the Redis client the deduper uses.
type markerStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DedupeNotifier wraps a notifier so each channel receives a report at most
// once per period and day. A Redis marker is claimed before sending and
// released again if the send fails.
type DedupeNotifier struct {
	next   domain.Notifier
	store  markerStore
	ttl    time.Duration
	logger *slog.Logger
}

var _ domain.Notifier = (*DedupeNotifier)(nil)

// NewDedupeNotifier wraps next. Markers expire after ttl.
func NewDedupeNotifier(next domain.Notifier, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *DedupeNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupeNotifier{next: next, store: client, ttl: ttl, logger: logger}
}

func (n *DedupeNotifier) Name() string { return n.next.Name() }

// Notify returns domain.ErrAlreadyDelivered when the marker already exists.
// Redis failures do not block delivery.
func (n *DedupeNotifier) Notify(ctx context.Context, report domain.Report) error {
	key := DedupeKey(n.next.Name(), report)

	claimed, err := n.store.SetNX(ctx, key, report.ID.String(), n.ttl).Result()
	if err != nil {
		n.logger.WarnContext(ctx, "dedupe check failed, delivering anyway", "key", key, "error", err)
		return n.next.Notify(ctx, report)
	}
	if !claimed {
		return domain.ErrAlreadyDelivered
	}

	if err := n.next.Notify(ctx, report); err != nil {
		if derr := n.store.Del(ctx, key).Err(); derr != nil {
			n.logger.WarnContext(ctx, "failed to release dedupe marker", "key", key, "error", derr)
		}
		return err
	}
	return nil
}

// DedupeKey identifies one channel's delivery of a period's report.
func DedupeKey(channel string, report domain.Report) string {
	return fmt.Sprintf("%s:%s:%s:%s", dedupeKeyPrefix, channel, report.Period, report.Date.Format(time.DateOnly))
}
