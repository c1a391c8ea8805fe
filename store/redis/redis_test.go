package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/archviz/store"
	"github.com/smallnest/archviz/store/storetest"
)

func newTestStore(t *testing.T, opts RedisOptions) (*RedisStateStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	opts.Addr = mr.Addr()
	s := NewRedisStateStore(opts)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStateStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.StateStore {
		s, _ := newTestStore(t, RedisOptions{})
		return s
	})
}

func TestRedisStateStore_KeyLayout(t *testing.T) {
	s, mr := newTestStore(t, RedisOptions{Prefix: "test:"})
	ctx := context.Background()

	assert.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Save(ctx, "session", storetest.SampleState()))

	assert.True(t, mr.Exists("test:state:session"))
	raw, err := mr.Get("test:state:session")
	require.NoError(t, err)
	assert.Contains(t, raw, `"version":0`)

	// Foreign keys under the prefix are not listed
	require.NoError(t, mr.Set("test:other", "x"))
	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session"}, keys)
}

func TestRedisStateStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, RedisOptions{TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", storetest.SampleState()))
	assert.Equal(t, time.Hour, mr.TTL("archviz:state:k"))

	mr.FastForward(30 * time.Minute)
	_, err := s.Load(ctx, "k")
	require.NoError(t, err)

	// Saving refreshes the expiration
	require.NoError(t, s.Save(ctx, "k", storetest.SampleState()))
	mr.FastForward(45 * time.Minute)
	_, err = s.Load(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(time.Hour)
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisStateStore_CorruptDocument(t *testing.T) {
	s, mr := newTestStore(t, RedisOptions{})
	require.NoError(t, mr.Set("archviz:state:bad", "{nope"))

	_, err := s.Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestRedisStateStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStateStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.Save(ctx, "k", storetest.SampleState()))
}
