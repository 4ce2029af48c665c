package testsupport

import (
	"context"
	"testing"

	"podcaster/internal/artifacts"
	"podcaster/internal/config"
	"podcaster/internal/records"
)

// MustOpenStore opens a records.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg, nil)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenArtifacts opens the configured artifact store and registers cleanup.
func MustOpenArtifacts(t testing.TB, cfg *config.Config) artifacts.Store {
	t.Helper()

	store, err := artifacts.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("artifacts.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustCreateQuery inserts a query and fails the test on error.
func MustCreateQuery(t testing.TB, store *records.Store, text string) *records.Query {
	t.Helper()

	q, err := store.CreateQuery(context.Background(), text)
	if err != nil {
		t.Fatalf("CreateQuery(%q): %v", text, err)
	}
	return q
}
