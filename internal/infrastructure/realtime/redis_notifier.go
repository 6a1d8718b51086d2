package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/ports"
)

// RedisNotifier publishes row-change events to a Redis channel so dashboard
// clients can track distribution progress without polling. Delivery is
// fire-and-forget; a dropped event only delays the dashboard until the next
// write for the same row.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

var _ ports.ChangeNotifier = (*RedisNotifier)(nil)

// NewRedisNotifier wires a redis client and a channel name.
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// NotifyChange serializes the event and publishes it.
func (n *RedisNotifier) NotifyChange(ctx context.Context, event domain.ChangeEvent) error {
	if n.client == nil || n.channel == "" {
		return fmt.Errorf("redis notifier misconfigured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}

	return nil
}
