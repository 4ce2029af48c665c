package logs_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"podcaster/internal/logs"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q, got %q", want, out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podcaster.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var out bytes.Buffer
	if err := logs.Tail(context.Background(), path, &out, logs.Options{Lines: 2}); err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if out.String() != "b\nc\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := logs.Tail(context.Background(), path, &out, logs.Options{Lines: 10}); err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if out.String() != "a\nb\nc\n" {
		t.Fatalf("expected whole file for large limit, got %q", out.String())
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.log")
	err := logs.Tail(context.Background(), path, &bytes.Buffer{}, logs.Options{Lines: 5})
	if !errors.Is(err, logs.ErrNoLogFile) {
		t.Fatalf("expected ErrNoLogFile, got %v", err)
	}
}

func TestTailFollowPrintsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podcaster.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, out, logs.Options{Lines: 1, Follow: true, Poll: 10 * time.Millisecond})
	}()
	waitFor(t, out, "start")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\npart"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	waitFor(t, out, "later")
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tail follow did not return after cancel")
	}
	if got := out.String(); got != "start\nlater\n" {
		t.Fatalf("unexpected follow output: %q", got)
	}
}

func TestTailFollowRestartsAfterTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podcaster.log")
	if err := os.WriteFile(path, []byte("old line one\nold line two\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, out, logs.Options{Follow: true, Poll: 10 * time.Millisecond})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate log: %v", err)
	}

	waitFor(t, out, "new")
	cancel()
	<-done
	if strings.Contains(out.String(), "old") {
		t.Fatalf("expected zero initial lines, got %q", out.String())
	}
}
