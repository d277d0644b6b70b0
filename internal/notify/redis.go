package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStream appends events to a Redis stream. This is the low-latency
// feed consumed by the door controller and other on-site observers; Kafka
// remains the durable trail.
type RedisStream struct {
	client redis.Cmdable
	stream string
}

func NewRedisStream(client redis.Cmdable, stream string) *RedisStream {
	return &RedisStream{client: client, stream: stream}
}

func (r *RedisStream) Emit(ctx context.Context, event Event) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"id":           event.ID,
			"kind":         string(event.Kind),
			"apartment":    event.Apartment.String(),
			"actor":        event.Actor.String(),
			"counterparty": event.Counterparty.String(),
			"amount":       uint64(event.Amount),
			"timestamp":    event.Timestamp.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}
