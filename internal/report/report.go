// Package report assembles the flat per-workout record handed to the CSV
// writer. It merges, it does not compute.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/Tilodry/zepp-extractor/internal/metrics"
	"github.com/Tilodry/zepp-extractor/internal/series"
	"github.com/Tilodry/zepp-extractor/internal/zepp"
)

// ErrIncompleteReport marks a report that cannot be assembled because a
// required input is missing.
var ErrIncompleteReport = errors.New("incomplete report")

// Report combines summary fields, derived metrics, and the decoded series
// in the fixed order of the CSV sections: Basic Info, Global Metrics,
// HR Metrics, Effort/Rest Durations, Time Series.
type Report struct {
	// Basic Info
	TrackID       string
	StartTime     time.Time // in the caller's reporting timezone
	RunTime       time.Duration
	TotalDistance float64
	Laps          float64
	Calories      float64
	ExerciseLoad  float64
	AvgHeartRate  float64
	PoolLength    float64
	PercentMoving float64
	PercentIdle   float64

	// Global Metrics
	TotalStrokes         float64
	AvgStrokeSpeed       float64
	MaxStrokeSpeed       float64
	AvgDistancePerStroke float64
	TrainingEffect       float64
	SwimStyle            float64
	SWOLF                float64
	SWOLFApplicable      bool

	// HR Metrics
	HRMax      float64
	HRMin      float64
	HRMean     float64
	HRVariance float64
	Zones      []metrics.Zone

	// Effort/Rest Durations
	EffortSeconds float64
	RestSeconds   float64

	// Time Series
	Series *series.Series
}

// Assemble merges the three inputs into a Report. loc is the timezone used
// for the report's start time; nil means UTC. The summary's own validity is
// not re-checked here — only presence.
func Assemble(sum *zepp.WorkoutSummary, d *metrics.Derived, s *series.Series, loc *time.Location) (*Report, error) {
	if sum == nil {
		return nil, fmt.Errorf("%w: workout summary is missing", ErrIncompleteReport)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: derived metrics are missing", ErrIncompleteReport)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: decoded series is missing", ErrIncompleteReport)
	}
	if loc == nil {
		loc = time.UTC
	}

	start, err := sum.StartTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteReport, err)
	}

	var runTime time.Duration
	if n := s.Len(); n > 0 {
		runTime = time.Duration(s.Time[n-1]) * time.Second
	}

	return &Report{
		TrackID:       sum.TrackID,
		StartTime:     start.In(loc),
		RunTime:       runTime,
		TotalDistance: d.TotalDistance,
		Laps:          sum.TotalTrips.Float64(),
		Calories:      sum.Calories.Float64(),
		ExerciseLoad:  sum.ExerciseLoad.Float64(),
		AvgHeartRate:  sum.AvgHeartRate.Float64(),
		PoolLength:    sum.PoolLength.Float64(),
		PercentMoving: d.PercentMoving,
		PercentIdle:   d.PercentIdle,

		TotalStrokes:         sum.TotalStrokes.Float64(),
		AvgStrokeSpeed:       sum.AvgStrokeSpeed.Float64(),
		MaxStrokeSpeed:       sum.MaxStrokeSpeed.Float64(),
		AvgDistancePerStroke: sum.AvgDistancePerStroke.Float64(),
		TrainingEffect:       sum.TrainingEffect.Float64(),
		SwimStyle:            sum.SwimStyle.Float64(),
		SWOLF:                d.SWOLF,
		SWOLFApplicable:      d.SWOLFApplicable,

		HRMax:      d.HRMax,
		HRMin:      d.HRMin,
		HRMean:     d.HRMean,
		HRVariance: d.HRVariance,
		Zones:      d.Zones,

		EffortSeconds: d.EffortSeconds,
		RestSeconds:   d.RestSeconds,

		Series: s,
	}, nil
}
