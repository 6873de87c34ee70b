package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/eventbus"
)

// ReportMessage is the broker payload of a delivered report.
type ReportMessage struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Period      string    `json:"period"`
	Date        string    `json:"date"`
	Body        string    `json:"body"`
	GeneratedAt time.Time `json:"generated_at"`
}

// BrokerNotifier publishes reports for downstream consumers under the
// routing key "report.<period>".
type BrokerNotifier struct {
	publisher eventbus.Publisher
}

var _ domain.Notifier = (*BrokerNotifier)(nil)

// NewBrokerNotifier creates a notifier over publisher.
func NewBrokerNotifier(publisher eventbus.Publisher) *BrokerNotifier {
	return &BrokerNotifier{publisher: publisher}
}

func (n *BrokerNotifier) Name() string { return "rabbitmq" }

func (n *BrokerNotifier) Notify(ctx context.Context, report domain.Report) error {
	payload, err := json.Marshal(ReportMessage{
		ID:          report.ID.String(),
		Title:       report.Title,
		Period:      report.Period.String(),
		Date:        report.Date.Format(time.DateOnly),
		Body:        report.Body,
		GeneratedAt: report.GeneratedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return n.publisher.Publish(ctx, RoutingKey(report.Period), payload)
}

// RoutingKey returns the routing key reports of period are published under.
func RoutingKey(period domain.Period) string {
	return "report." + period.String()
}
