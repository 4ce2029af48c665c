package artifacts_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/artifacts"
	"podcaster/internal/config"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

func testPolicy() transport.Policy {
	policy := transport.DefaultPolicy()
	policy.Unit = time.Millisecond
	return policy
}

func TestNameKeys(t *testing.T) {
	first := artifacts.TextName.NewKey()
	second := artifacts.TextName.NewKey()
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "combinedarticles/"))
	assert.True(t, strings.HasSuffix(first, ".txt"))
	assert.True(t, strings.HasPrefix(artifacts.ScriptName.NewKey(), "summaries/"))
	assert.True(t, strings.HasSuffix(artifacts.AudioName.NewKey(), ".mp3"))
	assert.Equal(t, ".wav", artifacts.AudioName.WithExtension("wav").Extension)
}

func TestFileStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := artifacts.NewFileStore(root, testPolicy())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, artifacts.ScriptName, []byte("script body"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "summaries/"))

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "script body", string(data))

	onDisk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, "script body", string(onDisk))

	entries, err := os.ReadDir(filepath.Join(root, "summaries"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreRepeatedPutNeverCollides(t *testing.T) {
	store, err := artifacts.NewFileStore(t.TempDir(), testPolicy())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := store.Put(ctx, artifacts.AudioName, []byte("A"))
	require.NoError(t, err)
	b, err := store.Put(ctx, artifacts.AudioName, []byte("B"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	got, err := store.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "A", string(got))
}

func TestFileStoreMissingRef(t *testing.T) {
	store, err := artifacts.NewFileStore(t.TempDir(), testPolicy())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "summaries/missing.txt")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestFileStoreRejectsEscapingRefs(t *testing.T) {
	store, err := artifacts.NewFileStore(t.TempDir(), testPolicy())
	require.NoError(t, err)

	for _, ref := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		_, err := store.Get(context.Background(), ref)
		assert.ErrorIs(t, err, services.ErrValidation, "ref %q", ref)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := artifacts.NewRedisStore(ctx, artifacts.RedisOptions{Addr: mr.Addr()}, testPolicy())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ref, err := store.Put(ctx, artifacts.TextName, []byte("combined text"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "combinedarticles/"))
	assert.True(t, mr.Exists("podcaster:artifact:"+ref))

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "combined text", string(data))

	_, err = store.Get(ctx, "combinedarticles/missing.txt")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRedisStoreUnavailableIsTransient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := artifacts.NewRedisStore(ctx, artifacts.RedisOptions{Addr: mr.Addr()}, testPolicy())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mr.Close()
	_, err = store.Get(ctx, "summaries/any.txt")
	assert.ErrorIs(t, err, services.ErrTransient)
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Artifacts.Dir = t.TempDir()
	store, err := artifacts.Open(context.Background(), &cfg, nil)
	require.NoError(t, err)
	_, ok := store.(*artifacts.FileStore)
	assert.True(t, ok)

	mr := miniredis.RunT(t)
	cfg.Artifacts.Backend = config.ArtifactBackendRedis
	cfg.Artifacts.RedisAddr = mr.Addr()
	store, err = artifacts.Open(context.Background(), &cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, ok = store.(*artifacts.RedisStore)
	assert.True(t, ok)
}
