package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/testsupport"
)

func TestCreateAndGatherReturnsHeadlines(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"Hello <b>world</b>.", "Second piece."})

	result, err := h.Service.CreateAndGather(context.Background(), "  technology ")
	require.NoError(t, err)
	assert.Equal(t, int64(10001), result.QueryID)
	assert.Equal(t, "technology", result.QueryText)
	assert.Equal(t, string(records.StatusArticlesGathered), result.Status)
	assert.Equal(t, []string{"Headline A", "Headline B"}, result.ArticleHeadlines)
}

func TestCreateAndGatherRejectsInvalidTopics(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"body"})

	for _, topic := range []string{"", "   ", "12345"} {
		_, err := h.Service.CreateAndGather(context.Background(), topic)
		assert.ErrorIs(t, err, services.ErrInvalidTopic, "topic %q", topic)
	}
	assert.Equal(t, 0, h.Searcher.Searches())

	queries, err := h.Service.ListQueries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queries, "rejected topics must not create queries")
}

func TestSummarizeAndSynthesize(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"Hello <b>world</b>.", "Second piece."})
	ctx := context.Background()

	fetched, err := h.Service.CreateAndGather(ctx, "technology")
	require.NoError(t, err)

	script, err := h.Service.Summarize(ctx, fetched.QueryID)
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", script.Script)
	assert.NotEmpty(t, script.ScriptKey)

	audio, err := h.Service.Synthesize(ctx, fetched.QueryID)
	require.NoError(t, err)
	assert.Equal(t, []byte("AUDIO"), audio.AudioData)
	assert.Equal(t, "technology", audio.QueryText)
	assert.NotEmpty(t, audio.AudioKey)

	again, err := h.Service.Synthesize(ctx, fetched.QueryID)
	require.NoError(t, err)
	assert.Equal(t, audio.AudioKey, again.AudioKey)
	assert.Equal(t, 1, h.Synthesizer.Calls())
}

func TestStagePreconditions(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"body"})
	ctx := context.Background()

	q := testsupport.MustCreateQuery(t, h.Store, "technology")

	_, err := h.Service.Summarize(ctx, q.ID)
	assert.ErrorIs(t, err, services.ErrStagePrecondition)
	_, err = h.Service.Synthesize(ctx, q.ID)
	assert.ErrorIs(t, err, services.ErrStagePrecondition)
	assert.Equal(t, 0, h.Summarizer.Calls())

	unchanged, err := h.Store.GetQuery(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, records.StatusCreated, unchanged.Status)
	assert.Empty(t, unchanged.TextRef)
	assert.Empty(t, unchanged.ScriptRef)
	assert.Empty(t, unchanged.AudioRef)
	assert.Empty(t, unchanged.LeaseToken)

	fetched, err := h.Service.CreateAndGather(ctx, "climate")
	require.NoError(t, err)
	_, err = h.Service.Synthesize(ctx, fetched.QueryID)
	assert.ErrorIs(t, err, services.ErrStagePrecondition, "synthesize needs a script first")

	gathered, err := h.Store.GetQuery(ctx, fetched.QueryID)
	require.NoError(t, err)
	assert.Equal(t, records.StatusArticlesGathered, gathered.Status)
	assert.Empty(t, gathered.ScriptRef)
	assert.Empty(t, gathered.AudioRef)
	assert.Equal(t, 0, h.Synthesizer.Calls())

	_, err = h.Service.Summarize(ctx, 99999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGenerateRunsWholePipeline(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"body"})

	audio, err := h.Service.Generate(context.Background(), "technology")
	require.NoError(t, err)
	assert.Equal(t, []byte("AUDIO"), audio.AudioData)

	queries, err := h.Service.ListQueries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, string(records.StatusAudioGenerated), queries[0].Status)
	assert.Equal(t, audio.AudioKey, queries[0].AudioKey)
}

func TestGenerateNoContent(t *testing.T) {
	h := testsupport.NewHarness(t, nil)

	_, err := h.Service.Generate(context.Background(), "zzzz")
	assert.ErrorIs(t, err, services.ErrNoContentFound)
	assert.Equal(t, 0, h.Summarizer.Calls())
}

func TestResetClearsEverything(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"body"})
	ctx := context.Background()

	fetched, err := h.Service.CreateAndGather(ctx, "technology")
	require.NoError(t, err)
	require.NoError(t, h.Service.Reset(ctx))

	queries, err := h.Service.ListQueries(ctx)
	require.NoError(t, err)
	assert.Empty(t, queries)
	articles, err := h.Service.ListArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles)

	_, err = h.Service.Summarize(ctx, fetched.QueryID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListArticles(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"one", "two"})
	ctx := context.Background()

	fetched, err := h.Service.CreateAndGather(ctx, "technology")
	require.NoError(t, err)

	articles, err := h.Service.ListArticles(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, int64(20001), articles[0].ArticleID)
	assert.Equal(t, fetched.QueryID, articles[0].QueryID)
	assert.Equal(t, "https://example.test/article-a", articles[0].URL)
}

func TestStatus(t *testing.T) {
	h := testsupport.NewHarness(t, []string{"body"})
	ctx := context.Background()
	_, err := h.Service.CreateAndGather(ctx, "technology")
	require.NoError(t, err)

	status, err := h.Service.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Ready)
	assert.Equal(t, "sqlite", status.Database.Driver)
	assert.Equal(t, 1, status.Database.TotalQueries)
	assert.Equal(t, 1, status.Database.StatusCounts[string(records.StatusArticlesGathered)])
	assert.Equal(t, 0, status.Database.StatusCounts[string(records.StatusCreated)])
	require.Len(t, status.Stages, 3)
}
