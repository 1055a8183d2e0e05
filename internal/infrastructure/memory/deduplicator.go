package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
)

// Deduplicator помнит ключи в памяти процесса в течение ttl.
type Deduplicator struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	ttl   time.Duration
	clock clock.Clock
}

func NewDeduplicator(ttl time.Duration, clk clock.Clock) *Deduplicator {
	return &Deduplicator{seen: make(map[string]time.Time), ttl: ttl, clock: clk}
}

func (d *Deduplicator) FirstSeen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	for k, expires := range d.seen {
		if !expires.After(now) {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

func (d *Deduplicator) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}
