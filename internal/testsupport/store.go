package testsupport

import (
	"testing"

	"pfbverify/internal/config"
	"pfbverify/internal/reportstore"
)

// MustOpenStore opens the report store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *reportstore.Store {
	t.Helper()

	store, err := reportstore.Open(cfg.ReportDBPath())
	if err != nil {
		t.Fatalf("reportstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
