package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "hrdesk"

// Redis is a Bus shared by several API instances.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("notify: ping redis: %w", err)
	}
	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: defaultPrefix}
}

func (r *Redis) versionKey(topic Topic) string { return r.prefix + ":version:" + string(topic) }
func (r *Redis) channel() string              { return r.prefix + ":changes" }

// Publish implements Publisher.
func (r *Redis) Publish(ctx context.Context, topic Topic) (Change, error) {
	v, err := r.client.Incr(ctx, r.versionKey(topic)).Result()
	if err != nil {
		return Change{}, fmt.Errorf("notify: incr %s: %w", topic, err)
	}
	c := Change{Topic: topic, Version: v, At: time.Now().UTC()}

	payload, err := json.Marshal(c)
	if err != nil {
		return c, err
	}
	if err := r.client.Publish(ctx, r.channel(), payload).Err(); err != nil {
		return c, fmt.Errorf("notify: publish %s: %w", topic, err)
	}
	return c, nil
}

// Version implements Bus.
func (r *Redis) Version(ctx context.Context, topic Topic) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(topic)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("notify: get %s: %w", topic, err)
	}
	return v, nil
}

// Versions implements Bus.
func (r *Redis) Versions(ctx context.Context) (map[Topic]int64, error) {
	keys := make([]string, len(Topics))
	for i, t := range Topics {
		keys[i] = r.versionKey(t)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: mget: %w", err)
	}

	out := make(map[Topic]int64, len(Topics))
	for i, t := range Topics {
		out[t] = 0
		if s, ok := vals[i].(string); ok {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				out[t] = v
			}
		}
	}
	return out, nil
}

// Subscribe implements Bus.
func (r *Redis) Subscribe(ctx context.Context) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("notify: subscribe: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
