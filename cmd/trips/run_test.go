package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davidchoysqldba/trips/internal/trip"
)

const header = "trip_id,duration,start_time,end_time,start_station,start_lat,start_lon,end_station,end_lat,end_lon,bike_id,plan_duration,trip_route_category,passholder_type,bike_type"

// tripLine renders one data line with the governed fields given and fixed
// pass-through values.
func tripLine(id, duration, start, end string) string {
	return strings.Join([]string{
		id, duration, start, end,
		"3000", "39.9", "-75.1", "3001", "39.95", "-75.16",
		"12345", "30", "One Way", "Indego30", "standard",
	}, ",")
}

// makeTempCSV writes header plus lines to a file in a fresh temp dir.
func makeTempCSV(tb testing.TB, lines ...string) string {
	tb.Helper()
	p := filepath.Join(tb.TempDir(), "trips.csv")
	body := header + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		tb.Fatalf("write csv: %v", err)
	}
	return p
}

// openSQL opens a raw *sql.DB on the same file to verify inserted rows.
// The storage/all blank import makes the driver available.
func openSQL(tb testing.TB, dsn string) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		tb.Fatalf("sql open: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

type tripRow struct {
	id, duration int64
	start, end   string
	startStation int64
	bikeType     string
}

func readTrips(tb testing.TB, dsn string) []tripRow {
	tb.Helper()
	rows, err := openSQL(tb, dsn).Query(`SELECT trip_id, duration, start_time, end_time, start_station, bike_type FROM trips ORDER BY trip_id`)
	if err != nil {
		tb.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var out []tripRow
	for rows.Next() {
		var r tripRow
		if err := rows.Scan(&r.id, &r.duration, &r.start, &r.end, &r.startStation, &r.bikeType); err != nil {
			tb.Fatalf("scan: %v", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		tb.Fatalf("rows: %v", err)
	}
	return out
}

// runCLI invokes realMain and returns exit code, stdout and stderr.
func runCLI(tb testing.TB, args ...string) (int, string, string) {
	tb.Helper()
	var stdout, stderr bytes.Buffer
	code := realMain(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_E2E_SingleRow(t *testing.T) {
	t.Parallel()

	csvPath := makeTempCSV(t, tripLine("900", "600", "06/01/2021 08:00", "06/01/2021 08:10"))
	dsn := filepath.Join(t.TempDir(), "trips.db")

	code, _, logs := runCLI(t, "-db", dsn, "-tz", "UTC", csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}

	got := readTrips(t, dsn)
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	want := tripRow{id: 900, duration: 600, start: "1622534400", end: "1622535000", startStation: 3000, bikeType: "standard"}
	if got[0] != want {
		t.Fatalf("row = %+v, want %+v", got[0], want)
	}
	if !strings.Contains(logs, "summary: processed=1 parse_errors=0 rejected=0 rejected_by_reason={} inserted=1 insert_failed=0") {
		t.Fatalf("missing summary line:\n%s", logs)
	}
	if !strings.Contains(logs, "source: path="+csvPath+" bytes=") {
		t.Fatalf("missing fingerprint line:\n%s", logs)
	}
}

func TestRun_E2E_RejectsAreLoggedAndSkipped(t *testing.T) {
	t.Parallel()

	csvPath := makeTempCSV(t,
		tripLine("900", "600", "06/01/2021 08:00", "06/01/2021 08:10"),
		tripLine("901", "600", "not-a-date", "06/01/2021 08:10"),
		tripLine("902", "12.0", "06/01/2021 09:00", "06/01/2021 09:12"),
		tripLine("903", "12", "06/01/2021 09:00", "06/01/2021 09:12"),
	)
	dir := t.TempDir()
	dsn := filepath.Join(dir, "trips.db")
	journal := filepath.Join(dir, "rejects", "rejects.csv")

	code, _, logs := runCLI(t, "-db", dsn, "-tz", "UTC", "-reject-log", journal, csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}

	got := readTrips(t, dsn)
	if len(got) != 2 || got[0].id != 900 || got[1].id != 903 || got[1].duration != 12 {
		t.Fatalf("rows = %+v, want trips 900 and 903", got)
	}

	for _, want := range []string{
		`validate: rejected line=3 reason=invalid_timestamp field=start_time value="not-a-date" row={trip_id=901 duration=600 start_time=not-a-date`,
		`validate: rejected line=4 reason=invalid_numeric_field field=duration value="12.0"`,
		"rejected=2 rejected_by_reason={invalid_numeric_field:1,invalid_timestamp:1} inserted=2",
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("logs missing %q:\n%s", want, logs)
		}
	}

	b, err := os.ReadFile(journal)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("journal lines = %d, want header + 2:\n%s", len(lines), b)
	}
	if !strings.HasPrefix(lines[1], "invalid_timestamp,3,start_time,not-a-date,") {
		t.Fatalf("journal line = %q", lines[1])
	}
}

func TestRun_E2E_PaddedCellsAreNotTrimmed(t *testing.T) {
	t.Parallel()

	padded := strings.Replace(tripLine("905", "600", "06/01/2021 08:00", "06/01/2021 08:10"), ",standard", ",  standard ", 1)
	csvPath := makeTempCSV(t,
		tripLine(" 900", "600", "06/01/2021 08:00", "06/01/2021 08:10"),
		tripLine("901", "600", " 06/01/2021 08:00", "06/01/2021 08:10"),
		padded,
	)
	dsn := filepath.Join(t.TempDir(), "trips.db")

	code, _, logs := runCLI(t, "-db", dsn, "-tz", "UTC", csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}

	got := readTrips(t, dsn)
	if len(got) != 1 || got[0].id != 905 {
		t.Fatalf("rows = %+v, want only trip 905", got)
	}
	if got[0].bikeType != "  standard " {
		t.Fatalf("bike_type = %q, want it stored unchanged", got[0].bikeType)
	}
	for _, want := range []string{
		`validate: rejected line=2 reason=invalid_numeric_field field=trip_id value=" 900"`,
		`validate: rejected line=3 reason=invalid_timestamp field=start_time value=" 06/01/2021 08:00"`,
		"rejected=2 rejected_by_reason={invalid_numeric_field:1,invalid_timestamp:1} inserted=1",
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("logs missing %q:\n%s", want, logs)
		}
	}
}

func TestRun_E2E_EmptyPassThroughValues(t *testing.T) {
	t.Parallel()

	line := strings.Join([]string{
		"900", "600", "06/01/2021 08:00", "06/01/2021 08:10",
		"", "", "-75.1", "3001", "39.95", "-75.16",
		"12345", "30", "One Way", "Indego30", "standard",
	}, ",")
	csvPath := makeTempCSV(t, line)
	dsn := filepath.Join(t.TempDir(), "trips.db")

	code, _, logs := runCLI(t, "-db", dsn, "-tz", "UTC", csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}

	var stationNull bool
	var lat sql.NullString
	err := openSQL(t, dsn).QueryRow(`SELECT start_station IS NULL, start_lat FROM trips WHERE trip_id = 900`).Scan(&stationNull, &lat)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !stationNull {
		t.Fatalf("empty start_station should be stored as NULL")
	}
	if !lat.Valid || lat.String != "" {
		t.Fatalf("start_lat = %+v, want empty string", lat)
	}
}

func TestRun_E2E_DuplicateTripIDSkipped(t *testing.T) {
	t.Parallel()

	csvPath := makeTempCSV(t,
		tripLine("900", "600", "06/01/2021 08:00", "06/01/2021 08:10"),
		tripLine("900", "700", "06/01/2021 08:00", "06/01/2021 08:10"),
		tripLine("901", "800", "06/01/2021 08:00", "06/01/2021 08:10"),
	)
	dir := t.TempDir()
	dsn := filepath.Join(dir, "trips.db")
	journal := filepath.Join(dir, "rejects.csv")

	code, _, logs := runCLI(t, "-db", dsn, "-reject-log", journal, csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}

	got := readTrips(t, dsn)
	if len(got) != 2 || got[0].duration != 600 || got[1].id != 901 {
		t.Fatalf("rows = %+v", got)
	}
	if !strings.Contains(logs, "loader: insert failed line=3 trip_id=900") {
		t.Fatalf("missing insert failure log:\n%s", logs)
	}
	if !strings.Contains(logs, "inserted=2 insert_failed=1") {
		t.Fatalf("missing summary counts:\n%s", logs)
	}
	b, err := os.ReadFile(journal)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if !strings.Contains(string(b), "insert_failed,3,trip_id,900,") {
		t.Fatalf("journal missing insert failure:\n%s", b)
	}
}

func TestRun_E2E_RerunReplacesContents(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "trips.db")
	first := makeTempCSV(t,
		tripLine("1", "60", "06/01/2021 08:00", "06/01/2021 08:01"),
		tripLine("2", "60", "06/01/2021 08:00", "06/01/2021 08:01"),
	)

	for i := 0; i < 2; i++ {
		if code, _, logs := runCLI(t, "-db", dsn, "-tz", "UTC", first); code != 0 {
			t.Fatalf("run %d exit code = %d, logs:\n%s", i, code, logs)
		}
		if got := readTrips(t, dsn); len(got) != 2 {
			t.Fatalf("run %d: rows = %d, want 2", i, len(got))
		}
	}

	second := makeTempCSV(t, tripLine("3", "60", "06/01/2021 08:00", "06/01/2021 08:01"))
	if code, _, logs := runCLI(t, "-db", dsn, "-tz", "UTC", second); code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}
	got := readTrips(t, dsn)
	if len(got) != 1 || got[0].id != 3 {
		t.Fatalf("rows after third run = %+v, want only trip 3", got)
	}
}

func TestRun_E2E_HeaderOnly(t *testing.T) {
	t.Parallel()

	csvPath := makeTempCSV(t)
	dsn := filepath.Join(t.TempDir(), "trips.db")
	code, _, logs := runCLI(t, "-db", dsn, csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}
	if got := readTrips(t, dsn); len(got) != 0 {
		t.Fatalf("rows = %d, want 0", len(got))
	}
}

func TestRun_Dump(t *testing.T) {
	t.Parallel()

	csvPath := makeTempCSV(t, tripLine("900", "600", "06/01/2021 08:00", "06/01/2021 08:10"))
	dsn := filepath.Join(t.TempDir(), "trips.db")

	code, out, logs := runCLI(t, "-db", dsn, "-tz", "UTC", "-dump", csvPath)
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("dump lines = %d, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "trip_id") || !strings.Contains(lines[0], "bike_type") {
		t.Fatalf("dump header = %q", lines[0])
	}
	fields := strings.Fields(lines[1])
	if fields[0] != "900" || fields[2] != "1622534400" {
		t.Fatalf("dump row = %q", lines[1])
	}
}

func TestRun_SetupFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	badConfig := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badConfig, []byte(`{"storage":{"kind":"oracle"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantLog string
	}{
		{name: "no input", args: nil, wantLog: "missing input path"},
		{name: "two inputs", args: []string{"a.csv", "b.csv"}, wantLog: "expected one input path"},
		{name: "missing file", args: []string{"-db", filepath.Join(dir, "x.db"), filepath.Join(dir, "nope.csv")}, wantLog: "run failed: source:"},
		{name: "empty file", args: []string{"-db", filepath.Join(dir, "y.db"), empty}, wantLog: "empty input"},
		{name: "invalid config", args: []string{"-config", badConfig, "in.csv"}, wantLog: "config: invalid pipeline"},
		{name: "bad timezone", args: []string{"-tz", "Mars/Olympus", "in.csv"}, wantLog: "config: invalid pipeline"},
		{name: "unknown flag", args: []string{"-nope"}, wantLog: "flag provided but not defined"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _, logs := runCLI(t, tt.args...)
			if code != 1 {
				t.Fatalf("exit code = %d, want 1; logs:\n%s", code, logs)
			}
			if !strings.Contains(logs, tt.wantLog) {
				t.Fatalf("logs missing %q:\n%s", tt.wantLog, logs)
			}
		})
	}
}

func TestRun_ValidateOnly(t *testing.T) {
	t.Parallel()

	code, _, logs := runCLI(t, "-validate", "-tz", "UTC", "whatever.csv")
	if code != 0 {
		t.Fatalf("exit code = %d, logs:\n%s", code, logs)
	}
	if !strings.Contains(logs, "config: valid") {
		t.Fatalf("logs = %s", logs)
	}
}

func TestResolvePipeline(t *testing.T) {
	t.Parallel()

	spec, err := resolvePipeline(cliFlags{storageKind: "postgres", tz: "UTC"}, []string{"in.csv"})
	if err != nil {
		t.Fatalf("resolvePipeline: %v", err)
	}
	if spec.Storage.Kind != "postgres" || spec.Storage.DB.DSN != "" {
		t.Fatalf("storage = %+v, want postgres with the sqlite default DSN cleared", spec.Storage)
	}
	if got := spec.ValidateOptions().String("timezone", ""); got != "UTC" {
		t.Fatalf("timezone option = %q", got)
	}
	if spec.Source.File.Path != "in.csv" {
		t.Fatalf("source path = %q", spec.Source.File.Path)
	}

	spec, err = resolvePipeline(cliFlags{storageKind: "mysql", dsn: "u:p@tcp(db:3306)/trips"}, []string{"in.csv"})
	if err != nil {
		t.Fatalf("resolvePipeline: %v", err)
	}
	if spec.Storage.DB.DSN != "u:p@tcp(db:3306)/trips" {
		t.Fatalf("dsn = %q", spec.Storage.DB.DSN)
	}
}

func TestResolvePipeline_TimezoneGoesToFirstValidateTransform(t *testing.T) {
	t.Parallel()

	cfg := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{"transform":[{"kind":"validate"},{"kind":"validate","options":{"timezone":"Asia/Tokyo"}}]}`
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	spec, err := resolvePipeline(cliFlags{configPath: cfg}, []string{"in.csv"})
	if err != nil {
		t.Fatalf("resolvePipeline: %v", err)
	}
	if got := spec.ValidateOptions().String("timezone", ""); got != "" {
		t.Fatalf("timezone = %q, want the first validate transform's (none)", got)
	}

	spec, err = resolvePipeline(cliFlags{configPath: cfg, tz: "UTC"}, []string{"in.csv"})
	if err != nil {
		t.Fatalf("resolvePipeline: %v", err)
	}
	if got := spec.ValidateOptions().String("timezone", ""); got != "UTC" {
		t.Fatalf("timezone = %q, want -tz applied to the first validate transform", got)
	}
	if got := spec.Transform[1].Options.String("timezone", ""); got != "Asia/Tokyo" {
		t.Fatalf("second transform timezone = %q, want it untouched", got)
	}
}

func TestLoadLocation(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "Local", "local"} {
		loc, err := loadLocation(name)
		if err != nil || loc != time.Local {
			t.Fatalf("loadLocation(%q) = %v, %v; want time.Local", name, loc, err)
		}
	}
	if loc, err := loadLocation("UTC"); err != nil || loc.String() != "UTC" {
		t.Fatalf("loadLocation(UTC) = %v, %v", loc, err)
	}
	if _, err := loadLocation("Nowhere/Special"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestRunUnsupportedSource(t *testing.T) {
	t.Parallel()

	spec, _ := resolvePipeline(cliFlags{}, []string{"in.csv"})
	spec.Source.Kind = "http"
	_, err := run(context.Background(), spec, log.New(io.Discard, "", 0), nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported source.kind=http") {
		t.Fatalf("err = %v", err)
	}
}

func TestSummaryString(t *testing.T) {
	t.Parallel()

	s := summary{Processed: 5, ParseErrors: 1, Inserted: 2, InsertFailed: 1}
	s.Rejected = map[trip.Reason]int64{"invalid_timestamp": 1, "invalid_numeric_field": 1}
	want := "summary: processed=5 parse_errors=1 rejected=2 rejected_by_reason={invalid_numeric_field:1,invalid_timestamp:1} inserted=2 insert_failed=1"
	if got := fmt.Sprint(s); got != want {
		t.Fatalf("summary = %q\nwant      %q", got, want)
	}
}
