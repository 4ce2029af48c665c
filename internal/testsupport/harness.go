package testsupport

import (
	"testing"

	"podcaster/internal/api"
	"podcaster/internal/artifacts"
	"podcaster/internal/config"
	"podcaster/internal/gather"
	"podcaster/internal/records"
	"podcaster/internal/summarize"
	"podcaster/internal/synthesize"
	"podcaster/internal/workflow"
)

// Harness wires the real stores, stages, controller, and service around fake
// providers.
type Harness struct {
	Config      *config.Config
	Store       *records.Store
	Artifacts   artifacts.Store
	Searcher    *FakeSearcher
	Summarizer  *EchoSummarizer
	Synthesizer *FixedSynthesizer
	Controller  *workflow.Controller
	Service     *api.Service
}

// NewHarness builds a Harness whose searcher serves bodies and whose
// synthesizer returns "AUDIO".
func NewHarness(t testing.TB, bodies []string, opts ...ConfigOption) *Harness {
	t.Helper()

	cfg := NewConfig(t, opts...)
	h := &Harness{
		Config:      cfg,
		Store:       MustOpenStore(t, cfg),
		Artifacts:   MustOpenArtifacts(t, cfg),
		Searcher:    NewFakeSearcher(bodies...),
		Summarizer:  &EchoSummarizer{},
		Synthesizer: &FixedSynthesizer{Audio: []byte("AUDIO")},
	}
	ctrl, err := workflow.NewController(cfg, h.Store, h.Artifacts, workflow.StageSet{
		Gather:     gather.New(h.Searcher, h.Artifacts, cfg.Gather.MaxArticles, nil),
		Summarize:  summarize.New(h.Summarizer, h.Artifacts, nil),
		Synthesize: synthesize.New(h.Synthesizer, h.Artifacts, cfg.Speech.OutputFormat, nil),
	}, nil)
	if err != nil {
		t.Fatalf("workflow.NewController: %v", err)
	}
	h.Controller = ctrl
	h.Service = api.NewService(h.Store, ctrl, nil)
	return h
}
