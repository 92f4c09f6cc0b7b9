package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

// CachedStore decorates a RecordStore with a TTL-guarded snapshot of
// LoadAll. The cache is an explicit object with caller-visible
// invalidation: every successful write drops the snapshot, and reads
// older than the TTL reload from the backend.
type CachedStore struct {
	store  RecordStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	snapshot []entity.LoadRecord
	loadedAt time.Time
	valid    bool
}

func NewCachedStore(store RecordStore, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{store: store, ttl: ttl, logger: logger, now: time.Now}
}

func (c *CachedStore) LoadAll(ctx context.Context) ([]entity.LoadRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.loadedAt) < c.ttl {
		return copyRecords(c.snapshot), nil
	}

	recs, err := c.store.LoadAll(ctx)
	if err != nil {
		// Leave any stale snapshot alone; the caller sees the error.
		return nil, err
	}
	c.snapshot = recs
	c.loadedAt = c.now()
	c.valid = true
	c.logger.Debug("store.cache.refreshed", "count", len(recs))
	return copyRecords(recs), nil
}

func (c *CachedStore) AppendMany(ctx context.Context, recs []entity.LoadRecord) error {
	if err := c.store.AppendMany(ctx, recs); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *CachedStore) ReplaceAll(ctx context.Context, recs []entity.LoadRecord) error {
	if err := c.store.ReplaceAll(ctx, recs); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops the snapshot so the next read hits the backend.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.snapshot = nil
	c.mu.Unlock()
}

func copyRecords(recs []entity.LoadRecord) []entity.LoadRecord {
	out := make([]entity.LoadRecord, len(recs))
	copy(out, recs)
	return out
}
