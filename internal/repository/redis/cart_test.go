package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/repository"
)

func setupTestRedis(t *testing.T) (*CartMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCartMirror(client), mr
}

func TestCartMirror_SaveThenLoad(t *testing.T) {
	m, mr := setupTestRedis(t)
	ctx := context.Background()

	items := []domain.LineItem{
		{ID: "p1", Name: "Widget", Price: 19.99, Qty: 2, Image: "/w.png"},
		{ID: "p2", Name: "Shirt", Price: 15, Qty: 1, Image: "/s.png", Size: "M"},
	}
	require.NoError(t, m.Save(ctx, "sess-1", items))

	assert.True(t, mr.Exists("cart:sess-1"))
	assert.Zero(t, mr.TTL("cart:sess-1"), "cart keys must not expire")

	records, err := m.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0]["id"])
	assert.Equal(t, 19.99, records[0]["price"])
	assert.Equal(t, float64(2), records[0]["qty"])
	assert.Equal(t, "M", records[1]["size"])
	_, hasSize := records[0]["size"]
	assert.False(t, hasSize)
}

func TestCartMirror_EmptyCartIsArray(t *testing.T) {
	m, mr := setupTestRedis(t)

	require.NoError(t, m.Save(context.Background(), "sess-1", nil))

	raw, err := mr.Get("cart:sess-1")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestCartMirror_LoadMissing(t *testing.T) {
	m, _ := setupTestRedis(t)

	records, err := m.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCartMirror_LoadCorrupt(t *testing.T) {
	m, mr := setupTestRedis(t)

	for _, blob := range []string{"{not json", `{"id":"p1"}`, `[1,2,3]`} {
		require.NoError(t, mr.Set("cart:sess-1", blob))
		_, err := m.Load(context.Background(), "sess-1")
		assert.ErrorIs(t, err, repository.ErrCorruptMirror, blob)
	}
}

func TestCartMirror_Clear(t *testing.T) {
	m, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "sess-1", []domain.LineItem{{ID: "p1", Price: 1, Qty: 1}}))
	require.NoError(t, m.Clear(ctx, "sess-1"))
	assert.False(t, mr.Exists("cart:sess-1"))

	require.NoError(t, m.Clear(ctx, "sess-1"))
}

func TestCartMirror_TransportError(t *testing.T) {
	m, mr := setupTestRedis(t)
	mr.Close()

	_, err := m.Load(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrCorruptMirror)
	assert.Error(t, m.Save(context.Background(), "sess-1", nil))
	assert.Error(t, m.Ping(context.Background()))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cart:abc", Key("abc"))
}
