package summarize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/artifacts"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/summarize"
	"podcaster/internal/testsupport"
)

func gatheredQuery(t *testing.T, store artifacts.Store, text string) *records.Query {
	t.Helper()
	ref, err := store.Put(context.Background(), artifacts.TextName, []byte(text))
	require.NoError(t, err)
	return &records.Query{ID: 10001, Text: "technology", Status: records.StatusArticlesGathered, TextRef: ref}
}

func TestExecuteStoresScript(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	model := &testsupport.EchoSummarizer{}
	s := summarize.New(model, store, nil)

	result, err := s.Execute(context.Background(), gatheredQuery(t, store, "Hello world. Second piece."))
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", string(result.Output))
	assert.Contains(t, result.Ref, "summaries/")
	assert.Equal(t, summarize.Instruction, model.LastInstruction())

	stored, err := store.Get(context.Background(), result.Ref)
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", string(stored))
}

func TestExecuteEmptyTextSkipsModel(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	model := &testsupport.EchoSummarizer{}
	s := summarize.New(model, store, nil)

	_, err := s.Execute(context.Background(), gatheredQuery(t, store, "  \n\t "))
	assert.ErrorIs(t, err, services.ErrEmptyInput)
	assert.Equal(t, 0, model.Calls())
}

func TestExecuteWrapsModelFailure(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	model := &testsupport.EchoSummarizer{Err: errors.New("upstream 500")}
	s := summarize.New(model, store, nil)

	_, err := s.Execute(context.Background(), gatheredQuery(t, store, "text"))
	assert.ErrorIs(t, err, services.ErrProvider)
}

func TestExecuteMissingTextArtifact(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	s := summarize.New(&testsupport.EchoSummarizer{}, store, nil)

	q := &records.Query{ID: 10001, Status: records.StatusArticlesGathered, TextRef: "combinedarticles/missing.txt"}
	_, err := s.Execute(context.Background(), q)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestExecuteReturnsCachedRef(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	model := &testsupport.EchoSummarizer{}
	s := summarize.New(model, store, nil)

	q := &records.Query{ID: 10001, Status: records.StatusAudioGenerated,
		TextRef: "combinedarticles/a.txt", ScriptRef: "summaries/b.txt", AudioRef: "podcasts/c.mp3"}
	result, err := s.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "summaries/b.txt", result.Ref)
	assert.Equal(t, 0, model.Calls())
}
