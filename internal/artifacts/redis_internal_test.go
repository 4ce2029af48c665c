package artifacts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/services"
	"podcaster/internal/transport"
)

func TestRedisPutKeyAcceptsOwnEarlierWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	policy := transport.DefaultPolicy()
	policy.Unit = time.Millisecond

	store, err := NewRedisStore(ctx, RedisOptions{Addr: mr.Addr()}, policy)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// A retried SETNX finds the value its first attempt stored.
	require.NoError(t, mr.Set(redisKeyPrefix+"summaries/a.txt", "script"))
	assert.NoError(t, store.putKey(ctx, "summaries/a.txt", []byte("script")))

	require.NoError(t, mr.Set(redisKeyPrefix+"summaries/b.txt", "someone else"))
	err = store.putKey(ctx, "summaries/b.txt", []byte("script"))
	assert.ErrorIs(t, err, services.ErrConflict)
	got, _ := mr.Get(redisKeyPrefix + "summaries/b.txt")
	assert.Equal(t, "someone else", got, "existing artifact must not be replaced")
}
