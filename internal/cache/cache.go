// Package cache implements the two-tier computation cache: an in-memory tier
// in front of an optional on-disk tier that survives process restarts.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/avi3tal/lazyflow/internal/logging"
)

// Entry is one cached result, keyed by node id and input fingerprint
type Entry struct {
	NodeID      string
	Fingerprint string
	Value       any
	StoredAt    time.Time
	TTL         time.Duration
}

// validAt reports whether the entry may be served at now under ttl.
// Validity is strict: an entry whose age equals ttl has expired.
func (e Entry) validAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.StoredAt) < ttl
}

// Stats describes cache occupancy
type Stats struct {
	MemoryEntries  int   `json:"memory_entries"`
	DiskEntries    int   `json:"disk_entries"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// store is one cache tier
type store interface {
	load(ctx context.Context, nodeID, fingerprint string) (Entry, bool, error)
	save(ctx context.Context, e Entry) error
	deleteNode(ctx context.Context, nodeID string) error
	clear(ctx context.Context) error
	stats() (entries int, size int64, err error)
}

var (
	_ store = (*memoryStore)(nil)
	_ store = (*diskStore)(nil)
)

// ComputationCache stores node results. The memory tier is always present;
// the disk tier exists only when a directory is configured.
//
// Expiry is lazy: entries are checked against the caller's ttl on read and
// are only removed by Invalidate or ClearAll.
type ComputationCache struct {
	memory *memoryStore
	disk   *diskStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a ComputationCache
type Option func(*ComputationCache)

// WithDir enables the disk tier rooted at dir
func WithDir(dir string) Option {
	return func(c *ComputationCache) {
		if dir != "" {
			c.disk = newDiskStore(dir)
		}
	}
}

// WithLogger sets the logger used for degraded I/O
func WithLogger(logger *slog.Logger) Option {
	return func(c *ComputationCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for stored_at and expiry
func WithClock(now func() time.Time) Option {
	return func(c *ComputationCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache. Without WithDir it is memory-only.
func New(opts ...Option) *ComputationCache {
	c := &ComputationCache{
		memory: newMemoryStore(),
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dir returns the disk tier directory, or "" for a memory-only cache
func (c *ComputationCache) Dir() string {
	if c.disk == nil {
		return ""
	}
	return c.disk.dir
}

// Set stores value for (nodeID, fingerprint). A non-positive ttl stores nothing.
//
// The memory write always succeeds. A returned error only means the disk copy
// could not be persisted; the value is still served from memory.
func (c *ComputationCache) Set(ctx context.Context, nodeID, fingerprint string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	e := Entry{
		NodeID:      nodeID,
		Fingerprint: fingerprint,
		Value:       value,
		StoredAt:    c.now(),
		TTL:         ttl,
	}
	_ = c.memory.save(ctx, e)

	if c.disk == nil {
		return nil
	}
	if err := c.disk.save(ctx, e); err != nil {
		c.logger.Warn("cache persist failed", "node", nodeID, "fingerprint", fingerprint, "err", err)
		return err
	}
	return nil
}

// Get returns the entry for (nodeID, fingerprint) if one exists and is younger
// than ttl. Disk entries are loaded into memory on first hit. Disk errors are
// logged and reported as a miss.
func (c *ComputationCache) Get(ctx context.Context, nodeID, fingerprint string, ttl time.Duration) (Entry, bool) {
	if ttl <= 0 {
		return Entry{}, false
	}
	now := c.now()

	if e, ok, _ := c.memory.load(ctx, nodeID, fingerprint); ok {
		if e.validAt(now, ttl) {
			c.logger.Debug("cache hit", "node", nodeID, "tier", "memory")
			return e, true
		}
	}

	if c.disk == nil {
		c.logger.Debug("cache miss", "node", nodeID)
		return Entry{}, false
	}

	e, ok, err := c.disk.load(ctx, nodeID, fingerprint)
	if err != nil {
		c.logger.Warn("cache read failed", "node", nodeID, "fingerprint", fingerprint, "err", err)
		return Entry{}, false
	}
	if !ok || !e.validAt(now, ttl) {
		c.logger.Debug("cache miss", "node", nodeID)
		return Entry{}, false
	}

	_ = c.memory.save(ctx, e)
	c.logger.Debug("cache hit", "node", nodeID, "tier", "disk")
	return e, true
}

// Invalidate removes every entry of nodeID from both tiers, whatever its fingerprint
func (c *ComputationCache) Invalidate(ctx context.Context, nodeID string) error {
	_ = c.memory.deleteNode(ctx, nodeID)
	if c.disk == nil {
		return nil
	}
	if err := c.disk.deleteNode(ctx, nodeID); err != nil {
		c.logger.Warn("cache invalidate failed", "node", nodeID, "err", err)
		return err
	}
	return nil
}

// ClearAll empties memory and deletes every on-disk entry
func (c *ComputationCache) ClearAll(ctx context.Context) error {
	_ = c.memory.clear(ctx)
	if c.disk == nil {
		return nil
	}
	if err := c.disk.clear(ctx); err != nil {
		c.logger.Warn("cache clear failed", "err", err)
		return err
	}
	return nil
}

// Stats reports entry counts per tier and the on-disk footprint.
// An unreadable disk tier reports zero entries.
func (c *ComputationCache) Stats() Stats {
	var s Stats
	s.MemoryEntries, _, _ = c.memory.stats()
	if c.disk == nil {
		return s
	}

	n, size, err := c.disk.stats()
	if err != nil {
		c.logger.Warn("cache stats failed", "err", err)
		return s
	}
	s.DiskEntries = n
	s.TotalSizeBytes = size
	return s
}

// Close drops the memory tier. Disk entries are kept for later instances.
func (c *ComputationCache) Close() error {
	return c.memory.clear(context.Background())
}
