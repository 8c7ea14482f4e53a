package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Versions hands out a counter per collection. Every write to a collection
// bumps its counter, so a reader holding an older value knows its copy is stale.
type Versions interface {
	Version(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, keys ...string) error
	Close() error
}

func CardsKey(userID uuid.UUID) string  { return "cards:" + userID.String() }
func GroupsKey(userID uuid.UUID) string { return "groups:" + userID.String() }
func GroupKey(groupID uuid.UUID) string { return "group:" + groupID.String() }

// ETag builds a weak entity tag from collection versions.
func ETag(versions ...int64) string {
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return `W/"` + strings.Join(parts, ".") + `"`
}

type memoryVersions struct {
	mu       sync.Mutex
	epoch    int64
	counters map[string]int64
}

// NewMemory keeps versions in process memory. Every version starts at the boot
// time in nanoseconds, so tags handed out before a restart never match again.
// Use the redis store when more than one instance serves traffic.
func NewMemory() Versions {
	return &memoryVersions{epoch: time.Now().UnixNano(), counters: map[string]int64{}}
}

func (m *memoryVersions) Version(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch + m.counters[key], nil
}

func (m *memoryVersions) Bump(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.counters[k]++
	}
	return nil
}

func (m *memoryVersions) Close() error { return nil }
