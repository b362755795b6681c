package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ExclusiveScanner/internal/domain"
)

type failingStore struct{}

func (failingStore) GetDocument(context.Context, string, any) (bool, error) {
	return false, errors.New("unavailable")
}

func (failingStore) PutDocument(context.Context, string, any) error {
	return errors.New("unavailable")
}

func TestSelectorStoreSeedsDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	docs := NewMemoryStore()
	store := NewSelectorStore(docs, domain.DefaultSelectors())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSelectors(), got)

	var doc selectorsDocument
	found, err := docs.GetDocument(ctx, SelectorsKey, &doc)
	require.NoError(t, err)
	require.True(t, found, "default must be persisted on first load")
	assert.Equal(t, domain.DefaultSelectors(), doc.Selectors)
	assert.False(t, doc.UpdatedAt.IsZero())
}

func TestSelectorStorePersistedCopyWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewSelectorStore(NewMemoryStore(), domain.DefaultSelectors())

	custom := domain.DefaultSelectors()
	custom.Item = ".new-item"
	require.NoError(t, store.Save(ctx, custom))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ".new-item", got.Item)
}

func TestSelectorStoreRejectsIncompleteSet(t *testing.T) {
	t.Parallel()

	store := NewSelectorStore(NewMemoryStore(), domain.DefaultSelectors())
	err := store.Save(context.Background(), domain.SelectorSet{Item: ".x"})
	require.Error(t, err)
}

func TestFailureCounter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	counter := NewFailureCounter(NewMemoryStore())

	n, err := counter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, counter.Store(ctx, 2))
	n, err = counter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, counter.Store(ctx, -3))
	n, err = counter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "count is never negative")

	require.NoError(t, counter.Store(ctx, 1))
	require.NoError(t, counter.Reset(ctx))
	n, err = counter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := NewFailureCounter(failingStore{}).Load(ctx)
	require.Error(t, err)

	_, err = NewSelectorStore(failingStore{}, domain.DefaultSelectors()).Load(ctx)
	require.Error(t, err)
}
