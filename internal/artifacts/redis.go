package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"podcaster/internal/metrics"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

// redisKeyPrefix namespaces artifact keys inside a shared Redis database.
const redisKeyPrefix = "podcaster:artifact:"

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps artifacts as Redis string values.
type RedisStore struct {
	client *redis.Client
	policy transport.Policy
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions, policy transport.Policy) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		// Retries belong to transport.Retry.
		MaxRetries: -1,
	})
	store := &RedisStore{client: client, policy: policy}
	_, err := transport.Retry(ctx, policy, "artifacts.redis.ping", func(ctx context.Context) (string, error) {
		res, err := client.Ping(ctx).Result()
		return res, classifyRedisErr("ping", err)
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// Put stores data under a fresh key with SETNX, so existing keys are never replaced.
func (s *RedisStore) Put(ctx context.Context, name Name, data []byte) (string, error) {
	key := name.NewKey()
	_, err := transport.Retry(ctx, s.policy, "artifacts.redis.put", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.putKey(ctx, key, data)
	})
	if err != nil {
		return "", err
	}
	metrics.RecordArtifact(name.Prefix, len(data))
	return key, nil
}

// putKey writes data once. A key already holding the same bytes is the
// earlier attempt of a retried write whose reply was lost.
func (s *RedisStore) putKey(ctx context.Context, key string, data []byte) error {
	created, err := s.client.SetNX(ctx, redisKeyPrefix+key, data, 0).Result()
	if err != nil {
		return classifyRedisErr("put", err)
	}
	if created {
		return nil
	}
	existing, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return classifyRedisErr("put", err)
	}
	if err == nil && bytes.Equal(existing, data) {
		return nil
	}
	return services.Wrap(services.ErrConflict, "artifacts", "put", fmt.Sprintf("artifact %q already exists", key), nil)
}

// Get reads the artifact stored under ref.
func (s *RedisStore) Get(ctx context.Context, ref string) ([]byte, error) {
	key, err := validateRef(ref)
	if err != nil {
		return nil, err
	}
	return transport.Retry(ctx, s.policy, "artifacts.redis.get", func(ctx context.Context) ([]byte, error) {
		data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, notFound(ref)
		}
		return data, classifyRedisErr("get", err)
	})
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func classifyRedisErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrTransient, "artifacts", operation, "redis unavailable", err)
}
