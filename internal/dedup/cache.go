// Package dedup filters out items whose title was already delivered.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

const (
	DefaultTTL            = 14 * 24 * time.Hour
	DefaultLookupBatch    = 30
	DefaultWriteBatchSize = 500
)

// Options tunes the cache; zero values use the defaults above.
type Options struct {
	TTL         time.Duration
	LookupBatch int
	WriteBatch  int
}

// Cache is a title keyed record of delivered items with TTL eviction.
// Matching is on the exact title only, so a story republished under a new
// URL with the same title counts as a duplicate.
type Cache struct {
	repo   ports.NewsRepository
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

// New wires the cache over a repository.
func New(repo ports.NewsRepository, opts Options, logger *slog.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.LookupBatch <= 0 || opts.LookupBatch > DefaultLookupBatch {
		opts.LookupBatch = DefaultLookupBatch
	}
	if opts.WriteBatch <= 0 || opts.WriteBatch > DefaultWriteBatchSize {
		opts.WriteBatch = DefaultWriteBatchSize
	}
	return &Cache{repo: repo, opts: opts, now: time.Now, logger: logger}
}

// FilterNew evicts expired records, then returns the items whose titles are
// not recorded, in input order. Any store error fails the whole call.
func (c *Cache) FilterNew(ctx context.Context, items []domain.NewsItem) ([]domain.NewsItem, error) {
	now := c.now()
	evicted, err := c.repo.DeleteCreatedBefore(ctx, now.Add(-c.opts.TTL))
	if err != nil {
		return nil, fmt.Errorf("%w: evict expired: %w", domain.ErrDedupStore, err)
	}
	c.debug("ttl eviction", "deleted", evicted, "ttl", c.opts.TTL)

	if len(items) == 0 {
		return nil, nil
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}

	existing := make(map[string]struct{})
	for batch := range slices.Chunk(titles, c.opts.LookupBatch) {
		found, err := c.repo.ExistingTitles(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup titles: %w", domain.ErrDedupStore, err)
		}
		for _, title := range found {
			existing[title] = struct{}{}
		}
	}

	fresh := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if _, dup := existing[item.Title]; dup {
			c.debug("duplicate title", "title", item.Title)
			continue
		}
		fresh = append(fresh, item)
	}

	if c.logger != nil {
		c.logger.Info("dedup done", "duplicates", len(items)-len(fresh), "new", len(fresh))
	}
	return fresh, nil
}

// Save records items with CreatedAt = now and ExpiresAt = now + TTL.
func (c *Cache) Save(ctx context.Context, items []domain.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	created := c.now()
	expires := created.Add(c.opts.TTL)

	stamped := make([]domain.NewsItem, len(items))
	for i, item := range items {
		item.CreatedAt = &created
		item.ExpiresAt = &expires
		stamped[i] = item
	}

	saved := 0
	for batch := range slices.Chunk(stamped, c.opts.WriteBatch) {
		if err := c.repo.SaveBatch(ctx, batch); err != nil {
			return fmt.Errorf("%w: save batch: %w", domain.ErrDedupStore, err)
		}
		saved += len(batch)
		c.debug("saved batch", "saved", saved, "total", len(stamped))
	}

	return nil
}

func (c *Cache) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
