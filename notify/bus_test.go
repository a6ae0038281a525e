package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/notify"
)

func newRedisBus(t *testing.T) *notify.Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	bus := notify.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func buses(t *testing.T) map[string]notify.Bus {
	return map[string]notify.Bus{
		"memory": notify.NewMemory(),
		"redis":  newRedisBus(t),
	}
}

func TestBus_VersionsIncreasePerTopic(t *testing.T) {
	for name, bus := range buses(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// GIVEN: A fresh bus
			v, err := bus.Version(ctx, notify.TopicEmployees)
			require.NoError(t, err)
			assert.Equal(t, int64(0), v)

			// WHEN: Employees change twice and documents once
			c1, err := bus.Publish(ctx, notify.TopicEmployees)
			require.NoError(t, err)
			c2, err := bus.Publish(ctx, notify.TopicEmployees)
			require.NoError(t, err)
			_, err = bus.Publish(ctx, notify.TopicDocuments)
			require.NoError(t, err)

			// THEN: Each topic counts independently
			assert.Equal(t, int64(1), c1.Version)
			assert.Equal(t, int64(2), c2.Version)

			all, err := bus.Versions(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), all[notify.TopicEmployees])
			assert.Equal(t, int64(1), all[notify.TopicDocuments])
			assert.Equal(t, int64(0), all[notify.TopicLeave])
			assert.Len(t, all, len(notify.Topics))
		})
	}
}

func TestBus_SubscribeReceivesChanges(t *testing.T) {
	for name, bus := range buses(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch, err := bus.Subscribe(ctx)
			require.NoError(t, err)

			_, err = bus.Publish(context.Background(), notify.TopicSettings)
			require.NoError(t, err)

			select {
			case c := <-ch:
				assert.Equal(t, notify.TopicSettings, c.Topic)
				assert.Equal(t, int64(1), c.Version)
			case <-time.After(2 * time.Second):
				t.Fatal("no change delivered")
			}

			cancel()
			assert.Eventually(t, func() bool {
				_, open := <-ch
				return !open
			}, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestPublish_NilPublisherIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.Publish(context.Background(), nil, notify.TopicUsers)
	})
}
