/*
Package notify tells every open view that some reference data changed.

PURPOSE:
  Several dashboard views show the same data (the employee list feeds the
  compliance roster, the document list, the leave form). When one view
  writes, the others must refresh. Each topic carries a monotonically
  increasing version: writers bump it, readers compare it.

GENERATION TOKENS:
  Every list response carries the topic's version in X-Data-Version. A
  client that fires several requests while a filter is toggled keeps only
  the response with the highest version it has seen, so a slow stale
  response can never overwrite newer state.

IMPLEMENTATIONS:
  - Memory: single process (tests, CLI, one-instance deployments)
  - Redis:  versions in INCR keys, change fan-out over PUBLISH, for several
            API instances behind a load balancer

SEE ALSO:
  - api/changes.go: GET /api/changes and the X-Data-Version header
*/
package notify

import (
	"context"
	"sync"
	"time"
)

// Topic names a family of data that changes together.
type Topic string

const (
	TopicEmployees    Topic = "employees"
	TopicCompliance   Topic = "compliance"
	TopicDocuments    Topic = "documents"
	TopicLeave        Topic = "leave"
	TopicApplications Topic = "applications"
	TopicUsers        Topic = "users"
	TopicSettings     Topic = "settings"
)

// Topics lists every known topic.
var Topics = []Topic{
	TopicEmployees, TopicCompliance, TopicDocuments, TopicLeave,
	TopicApplications, TopicUsers, TopicSettings,
}

// Change announces a new version of a topic.
type Change struct {
	Topic   Topic     `json:"topic"`
	Version int64     `json:"version"`
	At      time.Time `json:"at"`
}

// Publisher bumps a topic's version.
type Publisher interface {
	Publish(ctx context.Context, topic Topic) (Change, error)
}

// Bus is a Publisher that can also be read and subscribed to.
type Bus interface {
	Publisher
	Version(ctx context.Context, topic Topic) (int64, error)
	Versions(ctx context.Context) (map[Topic]int64, error)
	// Subscribe delivers changes until ctx is done. Slow subscribers may miss
	// intermediate changes; the latest version is always recoverable via Versions.
	Subscribe(ctx context.Context) (<-chan Change, error)
	Close() error
}

// Publish is a nil-safe helper for services. A failed notification never
// fails the write that triggered it.
func Publish(ctx context.Context, p Publisher, topic Topic) {
	if p == nil {
		return
	}
	_, _ = p.Publish(ctx, topic)
}

// =============================================================================
// MEMORY BUS
// =============================================================================

// Memory is an in-process Bus.
type Memory struct {
	mu       sync.Mutex
	versions map[Topic]int64
	subs     map[chan Change]struct{}
	now      func() time.Time
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{
		versions: make(map[Topic]int64),
		subs:     make(map[chan Change]struct{}),
		now:      time.Now,
	}
}

// Publish implements Publisher.
func (m *Memory) Publish(_ context.Context, topic Topic) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.versions[topic]++
	c := Change{Topic: topic, Version: m.versions[topic], At: m.now().UTC()}
	for ch := range m.subs {
		select {
		case ch <- c:
		default:
		}
	}
	return c, nil
}

// Version returns the current version of topic (0 if never published).
func (m *Memory) Version(_ context.Context, topic Topic) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[topic], nil
}

// Versions returns the version of every known topic.
func (m *Memory) Versions(_ context.Context) (map[Topic]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[Topic]int64, len(Topics))
	for _, t := range Topics {
		out[t] = m.versions[t]
	}
	return out, nil
}

// Subscribe implements Bus.
func (m *Memory) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 16)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Close is a no-op for the memory bus.
func (m *Memory) Close() error { return nil }
