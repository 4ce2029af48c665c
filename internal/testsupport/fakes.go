package testsupport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"podcaster/internal/gather"
)

// FakeSearcher serves canned hits and bodies.
type FakeSearcher struct {
	Hits      []gather.Hit
	Bodies    map[string]string
	SearchErr error
	FetchErr  error

	searches atomic.Int32
	fetches  atomic.Int32
}

// NewFakeSearcher returns a searcher that yields one hit per body, in order.
func NewFakeSearcher(bodies ...string) *FakeSearcher {
	f := &FakeSearcher{Bodies: make(map[string]string, len(bodies))}
	for i, body := range bodies {
		id := "article-" + string(rune('a'+i))
		f.Hits = append(f.Hits, gather.Hit{
			ID:       id,
			URL:      "https://example.test/" + id,
			Headline: "Headline " + string(rune('A'+i)),
		})
		f.Bodies[id] = body
	}
	return f
}

func (f *FakeSearcher) Search(_ context.Context, _ string) ([]gather.Hit, error) {
	f.searches.Add(1)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.Hits, nil
}

func (f *FakeSearcher) FetchBody(_ context.Context, id string) (string, error) {
	f.fetches.Add(1)
	if f.FetchErr != nil {
		return "", f.FetchErr
	}
	return f.Bodies[id], nil
}

// Searches reports how many Search calls were made.
func (f *FakeSearcher) Searches() int { return int(f.searches.Load()) }

// Fetches reports how many FetchBody calls were made.
func (f *FakeSearcher) Fetches() int { return int(f.fetches.Load()) }

// EchoSummarizer returns the text it was given. Delay slows each call so
// concurrent callers overlap.
type EchoSummarizer struct {
	Delay time.Duration
	Err   error

	mu           sync.Mutex
	calls        int
	instructions []string
}

func (s *EchoSummarizer) Summarize(ctx context.Context, instruction, text string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.instructions = append(s.instructions, instruction)
	s.mu.Unlock()
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return text, nil
}

// Calls reports how many Summarize calls were made.
func (s *EchoSummarizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastInstruction returns the most recent instruction, or "".
func (s *EchoSummarizer) LastInstruction() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.instructions) == 0 {
		return ""
	}
	return s.instructions[len(s.instructions)-1]
}

// FixedSynthesizer returns the same audio for every script.
type FixedSynthesizer struct {
	Audio []byte
	Err   error

	calls atomic.Int32
}

func (s *FixedSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Audio, nil
}

// Calls reports how many Synthesize calls were made.
func (s *FixedSynthesizer) Calls() int { return int(s.calls.Load()) }
