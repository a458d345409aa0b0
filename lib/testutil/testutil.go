package testutil

import (
	"context"
	"fmt"
	"testing"

	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/store"
	libtelemetry "akleg-data/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	Store    *store.Store
	Recorder *telemetry.Recorder
}

// SetupService opens a migrated sqlite store and a telemetry recorder for a test, the store is closed
// when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()
	cleanup := libtelemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}

	recorder := telemetry.NewRecorder()
	s, err := store.Open(context.Background(), store.Config{
		Driver: store.DialectSqlite,
		File:   dbpath,
	}, recorder)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return ServiceResult{
		Store:    s,
		Recorder: recorder,
	}
}
