// Package state reads and writes the two small records that survive between
// invocations: the active selector set and the consecutive-failure count.
// Both are read-then-written without locking; invocations must not overlap.
package state

import (
	"context"
	"fmt"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

const (
	SelectorsKey      = "selectors"
	ScrapingStatusKey = "scraping-status"
)

type selectorsDocument struct {
	Selectors domain.SelectorSet `json:"selectors"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type statusDocument struct {
	FailureCount int       `json:"failureCount"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// SelectorStore persists the active selector set.
type SelectorStore struct {
	docs     ports.DocumentStore
	fallback domain.SelectorSet
	now      func() time.Time
}

// NewSelectorStore seeds with fallback when nothing is persisted yet.
func NewSelectorStore(docs ports.DocumentStore, fallback domain.SelectorSet) *SelectorStore {
	return &SelectorStore{docs: docs, fallback: fallback, now: time.Now}
}

// Load returns the persisted set, writing the fallback first if none exists.
// A persisted document missing a role is replaced by the fallback too.
func (s *SelectorStore) Load(ctx context.Context) (domain.SelectorSet, error) {
	var doc selectorsDocument
	found, err := s.docs.GetDocument(ctx, SelectorsKey, &doc)
	if err != nil {
		return domain.SelectorSet{}, fmt.Errorf("load selectors: %w", err)
	}
	if found && doc.Selectors.Validate() == nil {
		return doc.Selectors, nil
	}

	if err := s.Save(ctx, s.fallback); err != nil {
		return domain.SelectorSet{}, fmt.Errorf("seed selectors: %w", err)
	}
	return s.fallback, nil
}

// Save replaces the persisted set.
func (s *SelectorStore) Save(ctx context.Context, set domain.SelectorSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	return s.docs.PutDocument(ctx, SelectorsKey, selectorsDocument{
		Selectors: set,
		UpdatedAt: s.now().UTC(),
	})
}

// FailureCounter persists the number of consecutive empty scrapes.
type FailureCounter struct {
	docs ports.DocumentStore
	now  func() time.Time
}

// NewFailureCounter wires the document store.
func NewFailureCounter(docs ports.DocumentStore) *FailureCounter {
	return &FailureCounter{docs: docs, now: time.Now}
}

// Load returns the stored count, 0 when absent.
func (c *FailureCounter) Load(ctx context.Context) (int, error) {
	var doc statusDocument
	if _, err := c.docs.GetDocument(ctx, ScrapingStatusKey, &doc); err != nil {
		return 0, fmt.Errorf("load failure count: %w", err)
	}
	return max(doc.FailureCount, 0), nil
}

// Store writes count, clamped at zero.
func (c *FailureCounter) Store(ctx context.Context, count int) error {
	if err := c.docs.PutDocument(ctx, ScrapingStatusKey, statusDocument{
		FailureCount: max(count, 0),
		LastUpdated:  c.now().UTC(),
	}); err != nil {
		return fmt.Errorf("store failure count: %w", err)
	}
	return nil
}

// Reset sets the count to zero.
func (c *FailureCounter) Reset(ctx context.Context) error {
	return c.Store(ctx, 0)
}
