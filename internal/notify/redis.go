package notify

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Redis publishes events on a pub/sub channel so every process serving the
// same workspace can refresh.
type Redis struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.SugaredLogger
}

// NewRedis connects to addr and checks the connection.
func NewRedis(ctx context.Context, addr, channel, origin string, logger *zap.SugaredLogger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Redis{client: client, channel: channel, origin: origin, logger: logger}, nil
}

// Notify publishes the event, stamped with this process's origin.
func (r *Redis) Notify(ctx context.Context, event Event) error {
	if event.Origin == "" {
		event.Origin = r.origin
	}
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe calls handle for every event published by other processes until
// ctx is done.
func (r *Redis) Subscribe(ctx context.Context, handle func(Event)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := Decode([]byte(msg.Payload))
			if err != nil {
				r.logger.Warnw("dropping malformed refresh event", "error", err)
				continue
			}
			if event.Origin == r.origin {
				continue
			}
			handle(event)
		}
	}
}

// Close releases the connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
