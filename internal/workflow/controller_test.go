package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcaster/internal/artifacts"
	"podcaster/internal/config"
	"podcaster/internal/gather"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/summarize"
	"podcaster/internal/synthesize"
	"podcaster/internal/testsupport"
	"podcaster/internal/workflow"
)

type fixture struct {
	cfg      *config.Config
	store    *records.Store
	blobs    artifacts.Store
	searcher *testsupport.FakeSearcher
	model    *testsupport.EchoSummarizer
	voice    *testsupport.FixedSynthesizer
	ctrl     *workflow.Controller
}

func newFixture(t *testing.T, bodies ...string) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	f := &fixture{
		cfg:      cfg,
		store:    testsupport.MustOpenStore(t, cfg),
		blobs:    testsupport.MustOpenArtifacts(t, cfg),
		searcher: testsupport.NewFakeSearcher(bodies...),
		model:    &testsupport.EchoSummarizer{},
		voice:    &testsupport.FixedSynthesizer{Audio: []byte("AUDIO")},
	}
	ctrl, err := workflow.NewController(cfg, f.store, f.blobs, workflow.StageSet{
		Gather:     gather.New(f.searcher, f.blobs, cfg.Gather.MaxArticles, nil),
		Summarize:  summarize.New(f.model, f.blobs, nil),
		Synthesize: synthesize.New(f.voice, f.blobs, "", nil),
	}, nil)
	require.NoError(t, err)
	f.ctrl = ctrl
	return f
}

func TestEndToEndTechnologyPodcast(t *testing.T) {
	f := newFixture(t, "Hello <b>world</b>.", "Second piece.")
	ctx := context.Background()

	q, err := f.ctrl.Start(ctx, "technology")
	require.NoError(t, err)
	assert.Equal(t, records.StatusArticlesGathered, q.Status)

	text, err := f.ctrl.Artifact(ctx, q, records.StatusArticlesGathered)
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", string(text))

	q, err = f.ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.NoError(t, err)
	assert.Equal(t, records.StatusAudioGenerated, q.Status)
	assert.NotEmpty(t, q.TextRef)
	assert.NotEmpty(t, q.ScriptRef)
	assert.NotEmpty(t, q.AudioRef)
	assert.Empty(t, q.LeaseToken)

	script, err := f.ctrl.Artifact(ctx, q, records.StatusScriptGenerated)
	require.NoError(t, err)
	assert.Equal(t, "Hello world. Second piece.", string(script))
	assert.Equal(t, summarize.Instruction, f.model.LastInstruction())

	audio, err := f.ctrl.Artifact(ctx, q, records.StatusAudioGenerated)
	require.NoError(t, err)
	assert.Equal(t, "AUDIO", string(audio))

	articles, err := f.store.ListArticles(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, q.ID, articles[0].QueryID)
}

func TestEnsureStageIsIdempotent(t *testing.T) {
	f := newFixture(t, "body")
	ctx := context.Background()

	q, err := f.ctrl.Start(ctx, "technology")
	require.NoError(t, err)
	first, err := f.ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.NoError(t, err)
	second, err := f.ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.NoError(t, err)

	assert.Equal(t, first.AudioRef, second.AudioRef)
	assert.Equal(t, 1, f.voice.Calls())
	assert.Equal(t, 1, f.model.Calls())
	assert.Equal(t, 1, f.searcher.Searches())

	// Asking for an earlier stage never regresses the record.
	earlier, err := f.ctrl.EnsureStage(ctx, q.ID, records.StatusArticlesGathered)
	require.NoError(t, err)
	assert.Equal(t, records.StatusAudioGenerated, earlier.Status)
}

func TestConcurrentSummarizeRunsModelOnce(t *testing.T) {
	f := newFixture(t, "race body")
	f.model.Delay = 50 * time.Millisecond
	ctx := context.Background()

	q, err := f.ctrl.Start(ctx, "technology")
	require.NoError(t, err)

	const callers = 4
	var wg sync.WaitGroup
	results := make([]*records.Query, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.ctrl.EnsureStage(ctx, q.ID, records.StatusScriptGenerated)
		}(i)
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ScriptRef, results[i].ScriptRef)
	}
	assert.Equal(t, 1, f.model.Calls())

	script, err := f.ctrl.Artifact(ctx, results[0], records.StatusScriptGenerated)
	require.NoError(t, err)
	assert.Equal(t, "race body", string(script))
}

func TestNoContentLeavesQueryCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, "zzzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNoContentFound))

	queries, err := f.store.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, records.StatusCreated, queries[0].Status)
	assert.Empty(t, queries[0].TextRef)
	assert.Empty(t, queries[0].LeaseToken, "failed stage must release its lease")
}

func TestFailedStageKeepsStatus(t *testing.T) {
	f := newFixture(t, "body")
	f.model.Err = errors.New("model offline")
	ctx := context.Background()

	q, err := f.ctrl.Start(ctx, "technology")
	require.NoError(t, err)

	_, err = f.ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrProvider)
	assert.Contains(t, err.Error(), "summarize")
	assert.Equal(t, 0, f.voice.Calls())

	after, err := f.store.GetQuery(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, records.StatusArticlesGathered, after.Status)
	assert.Empty(t, after.ScriptRef)

	// Once the model recovers the stage can be retried.
	f.model.Err = nil
	done, err := f.ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.NoError(t, err)
	assert.Equal(t, records.StatusAudioGenerated, done.Status)
}

func TestWaitsForLeaseHolder(t *testing.T) {
	f := newFixture(t, "body")
	ctx := context.Background()

	q, err := f.ctrl.Start(ctx, "technology")
	require.NoError(t, err)
	require.NoError(t, f.store.ClaimStage(ctx, q.ID, records.StatusArticlesGathered, "other", time.Now().Add(time.Minute)))

	go func() {
		time.Sleep(30 * time.Millisecond)
		ref, err := f.blobs.Put(ctx, artifacts.ScriptName, []byte("written elsewhere"))
		if err == nil {
			err = f.store.AdvanceStage(ctx, q.ID, records.StatusArticlesGathered, records.StatusScriptGenerated, "other", ref)
		}
		assert.NoError(t, err)
	}()

	got, err := f.ctrl.EnsureStage(ctx, q.ID, records.StatusScriptGenerated)
	require.NoError(t, err)
	assert.Equal(t, records.StatusScriptGenerated, got.Status)
	assert.Equal(t, 0, f.model.Calls())

	script, err := f.ctrl.Artifact(ctx, got, records.StatusScriptGenerated)
	require.NoError(t, err)
	assert.Equal(t, "written elsewhere", string(script))
}

func TestExpiredLeaseIsTakenOver(t *testing.T) {
	f := newFixture(t, "body")
	ctx := context.Background()

	q, err := f.ctrl.Start(ctx, "technology")
	require.NoError(t, err)
	require.NoError(t, f.store.ClaimStage(ctx, q.ID, records.StatusArticlesGathered, "crashed", time.Now().Add(-time.Second)))

	got, err := f.ctrl.EnsureStage(ctx, q.ID, records.StatusScriptGenerated)
	require.NoError(t, err)
	assert.Equal(t, records.StatusScriptGenerated, got.Status)
	assert.Equal(t, 1, f.model.Calls())
}

// conflictingBlobs refuses every script write as if the object already existed.
type conflictingBlobs struct {
	artifacts.Store
}

func (c conflictingBlobs) Put(ctx context.Context, name artifacts.Name, data []byte) (string, error) {
	if name == artifacts.ScriptName {
		return "", services.Wrap(services.ErrConflict, "artifacts", "put", "artifact already exists", nil)
	}
	return c.Store.Put(ctx, name, data)
}

func TestArtifactConflictFailsStageWithoutRerun(t *testing.T) {
	f := newFixture(t, "body")
	blobs := conflictingBlobs{Store: f.blobs}
	ctrl, err := workflow.NewController(f.cfg, f.store, blobs, workflow.StageSet{
		Gather:     gather.New(f.searcher, blobs, f.cfg.Gather.MaxArticles, nil),
		Summarize:  summarize.New(f.model, blobs, nil),
		Synthesize: synthesize.New(f.voice, blobs, "", nil),
	}, nil)
	require.NoError(t, err)

	q, err := ctrl.Start(context.Background(), "technology")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = ctrl.EnsureStage(ctx, q.ID, records.StatusScriptGenerated)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "summarize")
	assert.Equal(t, 1, f.model.Calls())

	after, err := f.store.GetQuery(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, records.StatusArticlesGathered, after.Status)
	assert.Empty(t, after.ScriptRef)
	assert.Empty(t, after.LeaseToken, "failed stage must release its lease")
}

// overtakenStore lets a competitor commit the stage right before the
// controller's own commit, as if the controller's lease had been taken over.
type overtakenStore struct {
	*records.Store
	ref string
}

func (o *overtakenStore) AdvanceStage(ctx context.Context, id int64, expected, next records.Status, token, ref string, articles ...records.Article) error {
	if o.ref == "" {
		o.ref = "summaries/competitor.txt"
		if err := o.Store.ReleaseStage(ctx, id, token); err != nil {
			return err
		}
		if err := o.Store.ClaimStage(ctx, id, expected, "competitor", time.Now().Add(time.Minute)); err != nil {
			return err
		}
		if err := o.Store.AdvanceStage(ctx, id, expected, next, "competitor", o.ref); err != nil {
			return err
		}
	}
	return o.Store.AdvanceStage(ctx, id, expected, next, token, ref, articles...)
}

func TestLostCommitFollowsWinner(t *testing.T) {
	f := newFixture(t, "body")
	q, err := f.ctrl.Start(context.Background(), "technology")
	require.NoError(t, err)

	store := &overtakenStore{Store: f.store}
	ctrl, err := workflow.NewController(f.cfg, store, f.blobs, workflow.StageSet{
		Gather:     gather.New(f.searcher, f.blobs, f.cfg.Gather.MaxArticles, nil),
		Summarize:  summarize.New(f.model, f.blobs, nil),
		Synthesize: synthesize.New(f.voice, f.blobs, "", nil),
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := ctrl.EnsureStage(ctx, q.ID, records.StatusScriptGenerated)
	require.NoError(t, err)
	assert.Equal(t, records.StatusScriptGenerated, got.Status)
	assert.Equal(t, "summaries/competitor.txt", got.ScriptRef)
	assert.Empty(t, got.LeaseToken)
	assert.Equal(t, 1, f.model.Calls())
}

func TestWaitHonorsContext(t *testing.T) {
	f := newFixture(t, "body")
	q, err := f.ctrl.Start(context.Background(), "technology")
	require.NoError(t, err)
	require.NoError(t, f.store.ClaimStage(context.Background(), q.ID, records.StatusArticlesGathered, "other", time.Now().Add(time.Minute)))

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	_, err = f.ctrl.EnsureStage(ctx, q.ID, records.StatusScriptGenerated)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsureStageErrors(t *testing.T) {
	f := newFixture(t, "body")
	ctx := context.Background()

	_, err := f.ctrl.EnsureStage(ctx, 424242, records.StatusArticlesGathered)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.ctrl.EnsureStage(ctx, 10001, records.StatusCreated)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestArtifactRequiresReachedStatus(t *testing.T) {
	f := newFixture(t, "body")
	q, err := f.ctrl.Start(context.Background(), "technology")
	require.NoError(t, err)

	_, err = f.ctrl.Artifact(context.Background(), q, records.StatusAudioGenerated)
	assert.ErrorIs(t, err, services.ErrStagePrecondition)
}

func TestNewControllerRejectsDuplicateTargets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	blobs := testsupport.MustOpenArtifacts(t, cfg)
	summarizer := summarize.New(&testsupport.EchoSummarizer{}, blobs, nil)

	_, err := workflow.NewController(cfg, store, blobs, workflow.StageSet{
		Summarize:  summarizer,
		Synthesize: summarizer,
	}, nil)
	assert.Error(t, err)
}

func TestStageHealth(t *testing.T) {
	f := newFixture(t)
	health := f.ctrl.StageHealth(context.Background())
	require.Len(t, health, 3)
	assert.Equal(t, "gather", health[0].Name)
	assert.Equal(t, "synthesize", health[2].Name)
	for _, h := range health {
		assert.True(t, h.Ready, h.Name)
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	ready  []int64
	failed []string
}

func (r *recordingNotifier) NotifyPodcastReady(_ context.Context, queryID int64, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, queryID)
	return nil
}

func (r *recordingNotifier) NotifyStageFailed(_ context.Context, _ int64, _, stage string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, stage)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func TestNotifierReceivesPipelineEvents(t *testing.T) {
	f := newFixture(t, "Hello world.")
	notifier := &recordingNotifier{}
	ctrl, err := workflow.NewController(f.cfg, f.store, f.blobs, workflow.StageSet{
		Gather:     gather.New(f.searcher, f.blobs, f.cfg.Gather.MaxArticles, nil),
		Summarize:  summarize.New(f.model, f.blobs, nil),
		Synthesize: synthesize.New(f.voice, f.blobs, "", nil),
	}, nil, workflow.WithNotifier(notifier))
	require.NoError(t, err)
	ctx := context.Background()

	q, err := ctrl.Start(ctx, "technology")
	require.NoError(t, err)

	f.model.Err = errors.New("model offline")
	_, err = ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.Error(t, err)

	f.model.Err = nil
	_, err = ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.NoError(t, err)

	// Already generated; no second event.
	_, err = ctrl.EnsureStage(ctx, q.ID, records.StatusAudioGenerated)
	require.NoError(t, err)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []int64{q.ID}, notifier.ready)
	assert.Equal(t, []string{"summarize"}, notifier.failed)
}
