package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chchsunny/PcWeb/internal/catalog"
)

type failingLister struct{}

func (failingLister) List(context.Context) ([]catalog.Part, error) {
	return nil, errors.New("db down")
}

func TestSync_CreatesIndexAndLoadsStore(t *testing.T) {
	ctx := context.Background()
	f, e := newFakeES(t)

	store := catalog.NewMemStore(
		part(0, "Ryzen 7", "CPU", "329.00"),
		part(0, "RTX 4070", "GPU", "599.99"),
	)

	require.NoError(t, Sync(ctx, e, store, nil))
	assert.True(t, f.exists)
	assert.Len(t, f.docs, 2)
	assert.Contains(t, f.docs, "1")
	assert.Contains(t, f.docs, "2")

	// a restart against an existing index reloads without recreating it
	f.mapping = ""
	require.NoError(t, Sync(ctx, e, store, nil))
	assert.Empty(t, f.mapping)
	assert.Equal(t, 2, f.bulkBatches)
}

func TestSync_EmptyStoreSkipsBulk(t *testing.T) {
	f, e := newFakeES(t)

	require.NoError(t, Sync(context.Background(), e, catalog.NewMemStore(), nil))
	assert.Equal(t, 0, f.bulkBatches)
}

func TestSync_StoreFailure(t *testing.T) {
	err := Sync(context.Background(), NewMemory(), failingLister{}, nil)
	assert.ErrorContains(t, err, "list parts")
}
