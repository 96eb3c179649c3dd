package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := NewMemory()
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), 0)

	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok, "expired entry must miss")

	_, ok = c.Get(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")

	c.Delete(ctx, "b")
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemory_CopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(v))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	type payload struct {
		Name string `json:"name"`
	}
	SetJSON(ctx, c, "p", payload{Name: "pepe"}, time.Minute)

	var got payload
	require.True(t, GetJSON(ctx, c, "p", &got))
	assert.Equal(t, "pepe", got.Name)

	assert.False(t, GetJSON(ctx, c, "missing", &got))
	assert.False(t, GetJSON(ctx, nil, "p", &got))
}

func TestRedis_GetSet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedis(db, zap.NewNop())

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet("token:bonding:x").SetVal("v")
		v, ok := c.Get(ctx, "token:bonding:x")
		require.True(t, ok)
		assert.Equal(t, "v", string(v))
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("missing").RedisNil()
		_, ok := c.Get(ctx, "missing")
		assert.False(t, ok)
	})

	t.Run("set", func(t *testing.T) {
		mock.ExpectSet("k", []byte("v"), 30*time.Second).SetVal("OK")
		c.Set(ctx, "k", []byte("v"), 30*time.Second)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedis(db, zap.NewNop())

	mock.ExpectSet("k", []byte("v"), time.Minute).SetErr(errors.New("connection refused"))
	c.Set(ctx, "k", []byte("v"), time.Minute)

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_EmptyURLUsesMemory(t *testing.T) {
	c := New(context.Background(), "", zap.NewNop())
	_, isMemory := c.(*Memory)
	assert.True(t, isMemory)
}
