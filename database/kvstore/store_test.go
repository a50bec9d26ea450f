package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStore_ReadWriteRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, ok := s.Read(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "a", "1"))
	v, ok := s.Read(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	s.Remove(ctx, "a")
	s.Remove(ctx, "a")
	_, ok = s.Read(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)

	require.NoError(t, s.Write(ctx, "k", "12345"))
	err := s.Write(ctx, "other", "123456")
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// Overwriting an existing key only counts the difference.
	require.NoError(t, s.Write(ctx, "k", "123456789"))
	v, _ := s.Read(ctx, "k")
	assert.Equal(t, "123456789", v)

	_, ok := s.Read(ctx, "other")
	assert.False(t, ok, "rejected write must not be stored")
}

func TestReadJSON_DiscardsCorruptValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Write(ctx, "bad", "{not json"))

	var out map[string]string
	assert.False(t, ReadJSON(ctx, s, zap.NewNop(), "bad", &out))
	assert.False(t, ReadJSON(ctx, s, nil, "missing", &out))

	require.NoError(t, WriteJSON(ctx, s, "good", map[string]string{"x": "y"}))
	require.True(t, ReadJSON(ctx, s, nil, "good", &out))
	assert.Equal(t, "y", out["x"])
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "registration:abc:step", Join(KeyRegistration, "abc", "step"))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client, "sena", time.Hour, nil)

	_, ok := s.Read(ctx, KeySocialLinks)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, KeySocialLinks, `{"instagram":"x"}`))
	assert.True(t, mr.Exists("sena:social_links"))
	assert.Equal(t, time.Hour, mr.TTL("sena:social_links"))

	v, ok := s.Read(ctx, KeySocialLinks)
	require.True(t, ok)
	assert.Equal(t, `{"instagram":"x"}`, v)

	s.Remove(ctx, KeySocialLinks)
	s.Remove(ctx, KeySocialLinks)
	assert.False(t, mr.Exists("sena:social_links"))
}

func TestRedisStore_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedisStore(client, "", 0, nil)
	mr.Close()

	ctx := context.Background()
	_, ok := s.Read(ctx, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, s.Write(ctx, "k", "v"), ErrUnavailable)
}
