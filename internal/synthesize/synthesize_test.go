package synthesize_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/artifacts"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/synthesize"
	"podcaster/internal/testsupport"
)

func scriptedQuery(t *testing.T, store artifacts.Store, script string) *records.Query {
	t.Helper()
	ref, err := store.Put(context.Background(), artifacts.ScriptName, []byte(script))
	require.NoError(t, err)
	return &records.Query{
		ID:        10001,
		Status:    records.StatusScriptGenerated,
		TextRef:   "combinedarticles/a.txt",
		ScriptRef: ref,
	}
}

func TestExecuteStoresAudio(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	voice := &testsupport.FixedSynthesizer{Audio: []byte("AUDIO")}
	s := synthesize.New(voice, store, "", nil)

	result, err := s.Execute(context.Background(), scriptedQuery(t, store, "Welcome to the show."))
	require.NoError(t, err)
	assert.Equal(t, []byte("AUDIO"), result.Output)
	assert.True(t, strings.HasPrefix(result.Ref, "podcasts/"))
	assert.True(t, strings.HasSuffix(result.Ref, ".mp3"))

	stored, err := store.Get(context.Background(), result.Ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("AUDIO"), stored)
}

func TestExecuteUsesConfiguredFormat(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	s := synthesize.New(&testsupport.FixedSynthesizer{Audio: []byte("OGG")}, store, "ogg_vorbis", nil)

	result, err := s.Execute(context.Background(), scriptedQuery(t, store, "script"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Ref, ".ogg_vorbis"))
}

func TestExecuteEmptyScriptSkipsSpeech(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	voice := &testsupport.FixedSynthesizer{Audio: []byte("AUDIO")}
	s := synthesize.New(voice, store, "", nil)

	_, err := s.Execute(context.Background(), scriptedQuery(t, store, "   "))
	assert.ErrorIs(t, err, services.ErrEmptyInput)
	assert.Equal(t, 0, voice.Calls())
}

func TestExecuteProviderFailures(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))

	failing := synthesize.New(&testsupport.FixedSynthesizer{Err: errors.New("boom")}, store, "", nil)
	_, err := failing.Execute(context.Background(), scriptedQuery(t, store, "script"))
	assert.ErrorIs(t, err, services.ErrProvider)

	silent := synthesize.New(&testsupport.FixedSynthesizer{}, store, "", nil)
	_, err = silent.Execute(context.Background(), scriptedQuery(t, store, "script"))
	assert.ErrorIs(t, err, services.ErrProvider)
}

func TestExecuteReturnsCachedRef(t *testing.T) {
	store := testsupport.MustOpenArtifacts(t, testsupport.NewConfig(t))
	voice := &testsupport.FixedSynthesizer{Audio: []byte("AUDIO")}
	s := synthesize.New(voice, store, "", nil)

	q := &records.Query{ID: 10001, Status: records.StatusAudioGenerated,
		TextRef: "combinedarticles/a.txt", ScriptRef: "summaries/b.txt", AudioRef: "podcasts/c.mp3"}
	result, err := s.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "podcasts/c.mp3", result.Ref)
	assert.Equal(t, 0, voice.Calls())
}
