package gather_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/gather"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/testsupport"
)

func newQuery(text string) *records.Query {
	return &records.Query{ID: 10001, Text: text, Status: records.StatusCreated}
}

func TestExecuteCombinesPlainTextBodies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)
	searcher := testsupport.NewFakeSearcher("<p>Hello <b>world</b>.</p>", "Second piece.")
	g := gather.New(searcher, store, 6, nil)

	result, err := g.Execute(context.Background(), newQuery("technology"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", string(result.Output))
	assert.Contains(t, result.Ref, "combinedarticles/")
	require.Len(t, result.Articles, 2)
	assert.Equal(t, "https://example.test/article-a", result.Articles[0].URL)
	assert.Equal(t, "Headline B", result.Articles[1].Headline)

	stored, err := store.Get(context.Background(), result.Ref)
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", string(stored))
}

func TestExecuteTruncatesToMaxArticles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)
	searcher := testsupport.NewFakeSearcher("one", "two", "three", "four")
	g := gather.New(searcher, store, 2, nil)

	result, err := g.Execute(context.Background(), newQuery("technology"))
	require.NoError(t, err)
	assert.Len(t, result.Articles, 2)
	assert.Equal(t, "one two", string(result.Output))
	assert.Equal(t, 2, searcher.Fetches())
}

func TestExecuteSkipsEmptyBodies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)
	searcher := testsupport.NewFakeSearcher("<script>x()</script>", "kept")
	g := gather.New(searcher, store, 6, nil)

	result, err := g.Execute(context.Background(), newQuery("technology"))
	require.NoError(t, err)
	assert.Equal(t, "kept", string(result.Output))
	assert.Len(t, result.Articles, 2)
}

func TestExecuteNoHitsIsNoContentFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)
	g := gather.New(testsupport.NewFakeSearcher(), store, 6, nil)

	_, err := g.Execute(context.Background(), newQuery("zzzz"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNoContentFound))
}

func TestExecutePropagatesSearchErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)
	searcher := testsupport.NewFakeSearcher("body")
	searcher.SearchErr = services.Wrap(services.ErrTransient, "guardian", "search", "unavailable", nil)
	g := gather.New(searcher, store, 6, nil)

	_, err := g.Execute(context.Background(), newQuery("technology"))
	assert.ErrorIs(t, err, services.ErrTransient)
	assert.Equal(t, 0, searcher.Fetches())
}

func TestExecuteReturnsCachedRef(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)
	searcher := testsupport.NewFakeSearcher("body")
	g := gather.New(searcher, store, 6, nil)

	q := newQuery("technology")
	q.Status = records.StatusScriptGenerated
	q.TextRef = "combinedarticles/existing.txt"
	q.ScriptRef = "summaries/existing.txt"

	result, err := g.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "combinedarticles/existing.txt", result.Ref)
	assert.Equal(t, 0, searcher.Searches())
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t, cfg)

	assert.True(t, gather.New(testsupport.NewFakeSearcher(), store, 6, nil).HealthCheck(context.Background()).Ready)
	assert.False(t, gather.New(nil, store, 6, nil).HealthCheck(context.Background()).Ready)
}
