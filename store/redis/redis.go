package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
)

// RedisStateStore implements store.StateStore using Redis
type RedisStateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "archviz:"
	TTL      time.Duration // Expiration for documents, default 0 (no expiration)
}

// NewRedisStateStore creates a new Redis state store
func NewRedisStateStore(opts RedisOptions) *RedisStateStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "archviz:"
	}

	return &RedisStateStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisStateStore) stateKey(key string) string {
	return fmt.Sprintf("%sstate:%s", s.prefix, key)
}

// Ping checks the connection.
func (s *RedisStateStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Save stores the state under key, refreshing the TTL
func (s *RedisStateStore) Save(ctx context.Context, key string, state *graph.PersistedState) error {
	data, err := store.Marshal(state)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.stateKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// Load retrieves the state stored under key
func (s *RedisStateStore) Load(ctx context.Context, key string) (*graph.PersistedState, error) {
	data, err := s.client.Get(ctx, s.stateKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load state from redis: %w", err)
	}
	return store.Unmarshal(data)
}

// Delete removes the state stored under key
func (s *RedisStateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.stateKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// List returns the stored keys in ascending order
func (s *RedisStateStore) List(ctx context.Context) ([]string, error) {
	base := s.stateKey("")
	var keys []string
	iter := s.client.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), base))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close closes the Redis client
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
