package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chchsunny/PcWeb/internal/cache"
	"github.com/chchsunny/PcWeb/internal/catalog"
	"github.com/chchsunny/PcWeb/internal/search"
	"github.com/chchsunny/PcWeb/pkg/client"
)

func newCatalog(t *testing.T) *client.Client {
	t.Helper()

	store := catalog.NewMemStore(
		catalog.Part{Name: "Ryzen 7", Category: "CPU", Price: decimal.RequireFromString("10.00")},
		catalog.Part{Name: "B650", Category: "Motherboard", Price: decimal.RequireFromString("189.50")},
		catalog.Part{Name: "RTX 4070", Category: "GPU", Price: decimal.RequireFromString("25.50")},
	)
	idx := search.NewMemory()
	parts, _ := store.List(context.Background())
	require.NoError(t, idx.IndexMany(context.Background(), parts))

	c, err := cache.NewMemory(cache.DefaultMemoryConfig())
	require.NoError(t, err)

	s := &catalog.Server{
		Catalog: &catalog.Service{Store: store, Cache: c, Index: idx},
		Log:     zap.NewNop(),
	}
	ts := httptest.NewServer(catalog.NewHandler(s, catalog.HTTPDeps{Log: zap.NewNop()}))
	t.Cleanup(ts.Close)

	return client.New(ts.URL + "/api/")
}

func TestClient_StorePartsAndCategories(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	parts, err := c.StoreParts(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.True(t, parts[1].Price.Equal(decimal.RequireFromString("189.5")))

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CPU", "Motherboard", "GPU"}, cats)
}

func TestClient_Search(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	got, err := c.Search(ctx, "rtx 4070")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "RTX 4070", got[0].Name)

	_, err = c.Search(ctx, "  ")
	assert.ErrorIs(t, err, client.ErrBadRequest)
}

func TestClient_CalculateBuild(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	b, err := c.CalculateBuild(ctx, []int{1, 3, 99})
	require.NoError(t, err)
	assert.True(t, b.Total.Equal(decimal.RequireFromString("35.50")))
	assert.Len(t, b.Parts, 2)

	b, err = c.CalculateBuild(ctx, nil)
	require.NoError(t, err)
	assert.True(t, b.Total.IsZero())
	assert.Empty(t, b.Parts)
}

func TestClient_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c := client.New(ts.URL)

	_, err := c.StoreParts(context.Background())
	assert.ErrorIs(t, err, client.ErrBadStatus)

	ts.Close()
	_, err = c.StoreParts(context.Background())
	assert.ErrorIs(t, err, client.ErrUnavailable)
}
