package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/moritea/storefront/pkg/redis"
)

func setupCartSlotsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS cart_slots (
  slot TEXT NOT NULL,
  session_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  updated_at DATETIME,
  PRIMARY KEY (slot, session_id)
);`).Error)
	return db
}

func TestDBBackendUpsert(t *testing.T) {
	ctx := context.Background()
	backend := NewDBBackend(setupCartSlotsDB(t))
	key := SlotKey{Slot: "tea-store-cart", SessionID: "sess-1"}

	_, err := backend.Get(ctx, key)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, backend.Put(ctx, key, []byte(`[{"id":"a","quantity":1}]`)))
	require.NoError(t, backend.Put(ctx, key, []byte(`[{"id":"a","quantity":4}]`)))

	raw, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","quantity":4}]`, string(raw))

	other := SlotKey{Slot: "another-slot", SessionID: "sess-1"}
	_, err = backend.Get(ctx, other)
	assert.ErrorIs(t, err, ErrSlotEmpty, "slots must be isolated")
}

func TestDBBackendThroughStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewDBBackend(setupCartSlotsDB(t)), "tea-store-cart", nil, nil)
	store.Save(ctx, "s", []LineItem{{Product: tea("oolong", "8.40"), Quantity: 2}})

	items := mustLoad(t, store, "s")
	require.Len(t, items, 1)
	assert.Equal(t, "oolong", items[0].Key())
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Product.Price.Equal(dec("8.4")))
}

type fakeRedis struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) GetBytes(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.data[key]
	if !ok {
		return nil, redis.ErrNil
	}
	return raw, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value.([]byte)
	f.ttl[key] = ttl
	return nil
}

func (f *fakeRedis) CartKey(slot, sessionID string) string {
	return (&redis.Client{}).CartKey(slot, sessionID)
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	backend := NewRedisBackend(client, 48*time.Hour)
	key := SlotKey{Slot: "tea-store-cart", SessionID: "abc"}

	_, err := backend.Get(ctx, key)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, backend.Put(ctx, key, []byte(`[]`)))
	assert.Equal(t, 48*time.Hour, client.ttl["mori:cart:tea-store-cart:abc"])

	raw, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	client.err = errors.New("i/o timeout")
	_, err = backend.Get(ctx, key)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotEmpty)
}

func TestMemoryBackendCopiesPayloads(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	key := SlotKey{Slot: "s", SessionID: "x"}
	payload := []byte("[1]")
	require.NoError(t, backend.Put(ctx, key, payload))
	payload[1] = '9'

	raw, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(raw))
}
