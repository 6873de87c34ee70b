// Package eventbus publishes messages to a broker.
package eventbus

import "context"

// Publisher sends messages to a broker under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
