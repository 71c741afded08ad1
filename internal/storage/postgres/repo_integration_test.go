//go:build integration

package postgres

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/davidchoysqldba/trips/internal/config"
	"github.com/davidchoysqldba/trips/internal/storage"
	"github.com/davidchoysqldba/trips/internal/trip"
)

// TestLoadIntegration runs a duplicate-key load against a real server named
// by POSTGRES_TEST_DSN.
func TestLoadIntegration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping Postgres integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	spec := config.Default("unused.csv")
	spec.Storage.Kind = "postgres"
	spec.Storage.DB.DSN = dsn
	spec.Storage.DB.Table = "trips_integration"

	repo, err := storage.New(ctx, storage.Config{
		Kind: "postgres", DSN: dsn, Table: spec.Storage.DB.Table, Columns: trip.ColumnNames(),
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()

	if err := storage.EnsureTable(ctx, spec, repo); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	purge, _ := storage.PurgeSQL(spec)

	row := func(id int64) trip.Typed {
		return trip.Typed{Line: int(id), Fields: map[string]any{
			"trip_id": id, "duration": int64(60), "start_time": int64(1), "end_time": int64(2),
			"bike_id": int64(5), "plan_duration": int64(30), "start_station": "3000",
		}}
	}
	src := &sliceTyped{rows: []trip.Typed{row(1), row(1), row(2)}}
	st, err := storage.NewSink(repo, storage.WithPurge(purge)).Load(ctx, src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Inserted != 2 || st.Failed != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

type sliceTyped struct{ rows []trip.Typed }

func (s *sliceTyped) Next() (trip.Typed, error) {
	if len(s.rows) == 0 {
		return trip.Typed{}, io.EOF
	}
	r := s.rows[0]
	s.rows = s.rows[1:]
	return r, nil
}
