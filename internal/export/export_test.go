package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tilodry/zepp-extractor/internal/metrics"
	"github.com/Tilodry/zepp-extractor/internal/zepp"
)

// fakeAPI implements detailFetcher over in-memory fixtures.
type fakeAPI struct {
	history []zepp.WorkoutSummary
	details map[string]*zepp.WorkoutDetail
}

func (f *fakeAPI) GetHistory(ctx context.Context) ([]zepp.WorkoutSummary, error) {
	return f.history, nil
}

func (f *fakeAPI) GetDetail(ctx context.Context, trackID, source string) (*zepp.WorkoutDetail, error) {
	d, ok := f.details[trackID]
	if !ok {
		return nil, fmt.Errorf("unknown track %s", trackID)
	}
	return d, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func goodDetail() *zepp.WorkoutDetail {
	return &zepp.WorkoutDetail{
		Time:      "0;10;25;40",
		HeartRate: "100;5;-2;7",
		Pace:      "0;1,5;1,6;1,4",
	}
}

// TestRunExportsWorkouts is the end-to-end happy path: two workouts fetched,
// decoded, and written as CSV files.
func TestRunExportsWorkouts(t *testing.T) {
	api := &fakeAPI{
		history: []zepp.WorkoutSummary{
			{TrackID: "1617184800", Source: "run.watch", TotalTrips: 20, PoolLength: 25},
			{TrackID: "1617284800", Source: "run.watch"},
		},
		details: map[string]*zepp.WorkoutDetail{
			"1617184800": goodDetail(),
			"1617284800": goodDetail(),
		},
	}

	outDir := t.TempDir()
	e := New(api, nil, outDir, metrics.DefaultParams(), 0, nil, false, false, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.WorkoutsExported != 2 {
		t.Errorf("exported = %d, want 2", stats.WorkoutsExported)
	}
	files, err := filepath.Glob(filepath.Join(outDir, "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("csv files = %d, want 2", len(files))
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# Section: Basic Workout Info") {
		t.Error("csv missing section header")
	}
}

// TestRunSkipsMalformedWorkout: a workout whose series fails decoding is
// counted as failed and produces no file, while the rest of the batch
// proceeds.
func TestRunSkipsMalformedWorkout(t *testing.T) {
	api := &fakeAPI{
		history: []zepp.WorkoutSummary{
			{TrackID: "1617184800", Source: "run.watch"},
			{TrackID: "1617284800", Source: "run.watch"},
		},
		details: map[string]*zepp.WorkoutDetail{
			"1617184800": {Time: "0;10", HeartRate: "100;-200", Pace: "1;1"}, // negative HR
			"1617284800": goodDetail(),
		},
	}

	outDir := t.TempDir()
	e := New(api, nil, outDir, metrics.DefaultParams(), 0, nil, false, false, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run should not abort on a per-workout failure: %v", err)
	}

	if stats.WorkoutsFailed != 1 {
		t.Errorf("failed = %d, want 1", stats.WorkoutsFailed)
	}
	if stats.WorkoutsExported != 1 {
		t.Errorf("exported = %d, want 1", stats.WorkoutsExported)
	}
	files, _ := filepath.Glob(filepath.Join(outDir, "*.csv"))
	if len(files) != 1 {
		t.Errorf("csv files = %d, want 1", len(files))
	}
}

// TestRunSkipsEmptySeries: a workout with no usable samples is skipped
// without error.
func TestRunSkipsEmptySeries(t *testing.T) {
	api := &fakeAPI{
		history: []zepp.WorkoutSummary{{TrackID: "1617184800", Source: "run.watch"}},
		details: map[string]*zepp.WorkoutDetail{
			"1617184800": {Time: "", HeartRate: "", Pace: ""},
		},
	}

	e := New(api, nil, t.TempDir(), metrics.DefaultParams(), 0, nil, false, false, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorkoutsSkipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.WorkoutsSkipped)
	}
	if stats.WorkoutsExported != 0 {
		t.Errorf("exported = %d, want 0", stats.WorkoutsExported)
	}
}

// TestRunDryRunWritesNothing verifies dry-run computes but does not touch
// the filesystem.
func TestRunDryRunWritesNothing(t *testing.T) {
	api := &fakeAPI{
		history: []zepp.WorkoutSummary{{TrackID: "1617184800", Source: "run.watch"}},
		details: map[string]*zepp.WorkoutDetail{"1617184800": goodDetail()},
	}

	outDir := filepath.Join(t.TempDir(), "out")
	e := New(api, nil, outDir, metrics.DefaultParams(), 0, nil, true, false, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorkoutsExported != 1 {
		t.Errorf("exported = %d, want 1", stats.WorkoutsExported)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("dry-run should not create the output directory")
	}
}

// TestRunStateSkip: a workout already in the state DB is not re-fetched.
func TestRunStateSkip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()
	if err := state.MarkExported("1617184800", "old.csv", "run-0"); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{
		history: []zepp.WorkoutSummary{{TrackID: "1617184800", Source: "run.watch"}},
		details: map[string]*zepp.WorkoutDetail{"1617184800": goodDetail()},
	}

	e := New(api, state, t.TempDir(), metrics.DefaultParams(), 0, nil, false, false, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorkoutsSkipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.WorkoutsSkipped)
	}
}

// TestRunForceReExports: -all ignores the state DB.
func TestRunForceReExports(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()
	if err := state.MarkExported("1617184800", "old.csv", "run-0"); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{
		history: []zepp.WorkoutSummary{{TrackID: "1617184800", Source: "run.watch"}},
		details: map[string]*zepp.WorkoutDetail{"1617184800": goodDetail()},
	}

	e := New(api, state, t.TempDir(), metrics.DefaultParams(), 0, nil, false, true, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorkoutsExported != 1 {
		t.Errorf("exported = %d, want 1", stats.WorkoutsExported)
	}
}

// TestRunTruncatedCounted verifies truncated series are exported and
// counted.
func TestRunTruncatedCounted(t *testing.T) {
	api := &fakeAPI{
		history: []zepp.WorkoutSummary{{TrackID: "1617184800", Source: "run.watch"}},
		details: map[string]*zepp.WorkoutDetail{
			"1617184800": {Time: "0;10;25;40", HeartRate: "100;5;-2", Pace: "0;1,5;1,6;1,4"},
		},
	}

	e := New(api, nil, t.TempDir(), metrics.DefaultParams(), 0, nil, false, false, discardLogger())
	stats, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.SeriesTruncated != 1 {
		t.Errorf("truncated = %d, want 1", stats.SeriesTruncated)
	}
	if stats.WorkoutsExported != 1 {
		t.Errorf("exported = %d, want 1", stats.WorkoutsExported)
	}
}
