package dedup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/infrastructure/storage"
)

type fakeRepo struct {
	records     map[string]time.Time
	calls       []string
	lookupSizes []int
	saveSizes   []int
	lookupErrAt int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]time.Time{}, lookupErrAt: -1}
}

func (f *fakeRepo) ExistingTitles(_ context.Context, titles []string) ([]string, error) {
	f.calls = append(f.calls, "lookup")
	if f.lookupErrAt == len(f.lookupSizes) {
		return nil, errors.New("quota exceeded")
	}
	f.lookupSizes = append(f.lookupSizes, len(titles))

	var found []string
	for _, title := range titles {
		if _, ok := f.records[title]; ok {
			found = append(found, title)
		}
	}
	return found, nil
}

func (f *fakeRepo) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	f.calls = append(f.calls, "evict")
	n := 0
	for title, created := range f.records {
		if !created.After(cutoff) {
			delete(f.records, title)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) SaveBatch(_ context.Context, items []domain.NewsItem) error {
	f.saveSizes = append(f.saveSizes, len(items))
	for _, item := range items {
		f.records[item.Title] = *item.CreatedAt
	}
	return nil
}

func titled(titles ...string) []domain.NewsItem {
	items := make([]domain.NewsItem, len(titles))
	for i, title := range titles {
		items[i] = domain.NewsItem{Title: title, URL: "https://n.news.naver.com/" + title, Publisher: "KBS"}
	}
	return items
}

func titlesOf(items []domain.NewsItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

func TestFilterNewPreservesOrderAndMatchesTitleOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.records["b"] = now.Add(-time.Hour)

	cache := New(repo, Options{}, nil)
	cache.now = func() time.Time { return now }

	items := titled("c", "b", "a")
	items[1].URL = "https://other.example/b"

	fresh, err := cache.FilterNew(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, titlesOf(fresh))
}

func TestFilterNewEvictsBeforeLookup(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.records["old"] = now.Add(-DefaultTTL - time.Minute)

	cache := New(repo, Options{}, nil)
	cache.now = func() time.Time { return now }

	fresh, err := cache.FilterNew(context.Background(), titled("old"))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, titlesOf(fresh), "expired title must count as new")
	assert.Equal(t, "evict", repo.calls[0])
}

func TestFilterNewEvictsOnEmptyInput(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	fresh, err := New(repo, Options{}, nil).FilterNew(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, []string{"evict"}, repo.calls)
}

func TestFilterNewBatchesLookups(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	titles := make([]string, 65)
	for i := range titles {
		titles[i] = fmt.Sprintf("t%02d", i)
	}

	fresh, err := New(repo, Options{LookupBatch: 100}, nil).FilterNew(context.Background(), titled(titles...))
	require.NoError(t, err)
	assert.Len(t, fresh, 65)
	assert.Equal(t, []int{30, 30, 5}, repo.lookupSizes, "batch size is capped at 30")
}

func TestFilterNewFailsWholeCallOnBatchError(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.lookupErrAt = 1

	titles := make([]string, 40)
	for i := range titles {
		titles[i] = fmt.Sprintf("t%02d", i)
	}

	fresh, err := New(repo, Options{}, nil).FilterNew(context.Background(), titled(titles...))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDedupStore)
	assert.Nil(t, fresh, "no partial result")
}

func TestSaveStampsAndBatches(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	cache := New(repo, Options{WriteBatch: 2}, nil)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Save(context.Background(), titled("a", "b", "c")))
	assert.Equal(t, []int{2, 1}, repo.saveSizes)
	assert.Equal(t, now, repo.records["c"])
}

func TestSQLiteIdempotenceAndTTLBoundary(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "dedup.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	saveTime := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
	clock := saveTime
	cache := New(storage.NewNewsRepository(db), Options{}, nil)
	cache.now = func() time.Time { return clock }

	items := titled("[단독] a", "[단독] b")

	first, err := cache.FilterNew(ctx, items)
	require.NoError(t, err)
	second, err := cache.FilterNew(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, titlesOf(first), titlesOf(second), "no writes, same answer")

	require.NoError(t, cache.Save(ctx, first))
	again, err := cache.FilterNew(ctx, items)
	require.NoError(t, err)
	assert.Empty(t, again, "saved titles are duplicates")

	// one second before the TTL boundary the records survive
	clock = saveTime.Add(DefaultTTL - time.Second)
	stillDup, err := cache.FilterNew(ctx, items)
	require.NoError(t, err)
	assert.Empty(t, stillDup)

	// exactly at the boundary they are evicted
	clock = saveTime.Add(DefaultTTL)
	expired, err := cache.FilterNew(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"[단독] a", "[단독] b"}, titlesOf(expired))
}
