// Package export drives the per-workout pipeline: fetch detail, decode the
// series, compute metrics, assemble the report, and write one CSV file per
// workout. Workouts are processed synchronously, one at a time; a workout
// that fails any step is logged and skipped, never aborting the batch.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Tilodry/zepp-extractor/internal/metrics"
	"github.com/Tilodry/zepp-extractor/internal/report"
	"github.com/Tilodry/zepp-extractor/internal/series"
	"github.com/Tilodry/zepp-extractor/internal/zepp"
)

// Stats tracks the outcome of one export run.
type Stats struct {
	WorkoutsTotal    int
	WorkoutsExported int
	WorkoutsSkipped  int
	WorkoutsFailed   int
	SeriesTruncated  int
}

// detailFetcher is the part of the API client the exporter needs.
type detailFetcher interface {
	GetHistory(ctx context.Context) ([]zepp.WorkoutSummary, error)
	GetDetail(ctx context.Context, trackID, source string) (*zepp.WorkoutDetail, error)
}

// Exporter fetches workouts and writes their CSV reports.
type Exporter struct {
	client    detailFetcher
	state     *StateDB
	outDir    string
	params    metrics.Params
	hrCeiling float64
	loc       *time.Location
	dryRun    bool
	force     bool // re-export workouts already in the state DB
	log       *slog.Logger
	stats     Stats
}

// New creates a new Exporter. state may be nil, in which case no skip
// tracking happens. loc nil means UTC.
func New(client detailFetcher, state *StateDB, outDir string, params metrics.Params, hrCeiling float64, loc *time.Location, dryRun, force bool, log *slog.Logger) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{
		client:    client,
		state:     state,
		outDir:    outDir,
		params:    params,
		hrCeiling: hrCeiling,
		loc:       loc,
		dryRun:    dryRun,
		force:     force,
		log:       log,
	}
}

// Run fetches the workout history and exports each workout in turn.
func (e *Exporter) Run(ctx context.Context) (*Stats, error) {
	runID := uuid.NewString()
	e.log.Info("starting export run", "run_id", runID)

	workouts, err := e.client.GetHistory(ctx)
	if err != nil {
		return &e.stats, fmt.Errorf("fetching history: %w", err)
	}
	e.log.Info("retrieved workout history", "workouts", len(workouts))

	if !e.dryRun {
		if err := os.MkdirAll(e.outDir, 0o755); err != nil {
			return &e.stats, fmt.Errorf("creating output dir %s: %w", e.outDir, err)
		}
	}

	for i := range workouts {
		if err := ctx.Err(); err != nil {
			return &e.stats, err
		}
		e.stats.WorkoutsTotal++

		w := &workouts[i]
		skipped, err := e.processWorkout(ctx, w, runID)
		if err != nil {
			e.log.Warn("skipping workout", "track_id", w.TrackID, "error", err)
			e.stats.WorkoutsFailed++
			continue
		}
		if skipped {
			e.stats.WorkoutsSkipped++
		} else {
			e.stats.WorkoutsExported++
		}
	}

	e.log.Info("export run complete",
		"run_id", runID,
		"exported", e.stats.WorkoutsExported,
		"skipped", e.stats.WorkoutsSkipped,
		"failed", e.stats.WorkoutsFailed,
	)
	return &e.stats, nil
}

// processWorkout runs the fetch → decode → compute → assemble → write chain
// for one workout. Returns skipped=true when the workout was already
// exported or holds no usable samples.
func (e *Exporter) processWorkout(ctx context.Context, w *zepp.WorkoutSummary, runID string) (skipped bool, err error) {
	if e.state != nil && !e.force {
		exported, err := e.state.IsExported(w.TrackID)
		if err != nil {
			return false, fmt.Errorf("state check: %w", err)
		}
		if exported {
			return true, nil
		}
	}

	detail, err := e.client.GetDetail(ctx, w.TrackID, w.Source)
	if err != nil {
		return false, err
	}

	s, err := series.Decode(detail.HeartRate, detail.Pace, detail.Time, e.hrCeiling)
	if err != nil {
		return false, err
	}
	if s.Len() == 0 {
		e.log.Warn("no usable samples", "track_id", w.TrackID)
		return true, nil
	}
	if s.Truncated {
		e.log.Info("series lengths disagreed, truncated to shortest", "track_id", w.TrackID, "samples", s.Len())
		e.stats.SeriesTruncated++
	}

	derived := metrics.Compute(w, s, e.params)

	rep, err := report.Assemble(w, &derived, s, e.loc)
	if err != nil {
		return false, err
	}

	name := FileName(rep)
	if e.dryRun {
		e.log.Info("dry-run: would write", "file", name, "samples", s.Len())
		return false, nil
	}

	path := filepath.Join(e.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, rep); err != nil {
		f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", path, err)
	}

	if e.state != nil {
		if err := e.state.MarkExported(w.TrackID, name, runID); err != nil {
			e.log.Warn("failed to mark exported", "track_id", w.TrackID, "error", err)
		}
	}

	e.log.Info("exported workout", "track_id", w.TrackID, "file", name)
	return false, nil
}
