package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Tilodry/zepp-extractor/internal/report"
)

// FileName returns the per-workout CSV file name, derived from the local
// start time: "2006-01-02_15-04-05.csv".
func FileName(r *report.Report) string {
	return r.StartTime.Format("2006-01-02_15-04-05") + ".csv"
}

// WriteCSV writes one workout report as a sectioned CSV document. Sections
// appear in fixed order: Basic Workout Info, Global Metrics, HR Metrics,
// Effort/Rest Durations, Time Series Data.
func WriteCSV(w io.Writer, r *report.Report) error {
	cw := csv.NewWriter(w)

	writeBasicInfo(cw, r)
	writeGlobalMetrics(cw, r)
	writeHRMetrics(cw, r)
	writeDurations(cw, r)
	writeTimeSeries(cw, r)

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func writeBasicInfo(cw *csv.Writer, r *report.Report) {
	cw.Write([]string{"# Section: Basic Workout Info"})
	cw.Write([]string{
		"total_distance", "laps", "calories", "exercise_load",
		"run_time (HH:MM:SS)", "workout_start_time", "avg_heart_rate",
		"swolf", "percentage_moving", "percentage_idle", "track_id", "pool_length",
	})
	cw.Write([]string{
		fmt.Sprintf("%.1f", r.TotalDistance),
		fmt.Sprintf("%.0f", r.Laps),
		fmt.Sprintf("%.0f", r.Calories),
		fmt.Sprintf("%.0f", r.ExerciseLoad),
		formatHMS(int(r.RunTime.Seconds())),
		r.StartTime.Format("15:04:05"),
		fmt.Sprintf("%.0f", r.AvgHeartRate),
		formatSWOLF(r),
		fmt.Sprintf("%.2f%%", r.PercentMoving),
		fmt.Sprintf("%.2f%%", r.PercentIdle),
		r.TrackID,
		fmt.Sprintf("%.0f", r.PoolLength),
	})
	cw.Write(nil)
}

func writeGlobalMetrics(cw *csv.Writer, r *report.Report) {
	cw.Write([]string{"# Section: Global Metrics"})
	cw.Write([]string{
		"total_strokes", "avg_stroke_speed", "max_stroke_speed",
		"avg_distance_per_stroke", "training_effect", "swim_style",
	})
	cw.Write([]string{
		fmt.Sprintf("%.0f", r.TotalStrokes),
		fmt.Sprintf("%.2f", r.AvgStrokeSpeed),
		fmt.Sprintf("%.2f", r.MaxStrokeSpeed),
		fmt.Sprintf("%.2f", r.AvgDistancePerStroke),
		fmt.Sprintf("%.1f", r.TrainingEffect),
		fmt.Sprintf("%.0f", r.SwimStyle),
	})
	cw.Write(nil)
}

func writeHRMetrics(cw *csv.Writer, r *report.Report) {
	cw.Write([]string{"# Section: HR Metrics"})
	cw.Write([]string{"hr_max", "hr_min", "hr_mean", "hr_variance"})
	cw.Write([]string{
		fmt.Sprintf("%.0f", r.HRMax),
		fmt.Sprintf("%.0f", r.HRMin),
		fmt.Sprintf("%.1f", r.HRMean),
		fmt.Sprintf("%.2f", r.HRVariance),
	})
	cw.Write(nil)
	cw.Write([]string{"Zone", "Seconds", "Percentage"})
	for _, z := range r.Zones {
		cw.Write([]string{
			z.Label,
			fmt.Sprintf("%.0f", z.Seconds),
			fmt.Sprintf("%.2f%%", z.Percent),
		})
	}
	cw.Write(nil)
}

func writeDurations(cw *csv.Writer, r *report.Report) {
	cw.Write([]string{"# Section: Effort/Rest Durations"})
	cw.Write([]string{"total_effort_duration_s", "total_rest_duration_s"})
	cw.Write([]string{
		fmt.Sprintf("%.2f", r.EffortSeconds),
		fmt.Sprintf("%.2f", r.RestSeconds),
	})
	cw.Write(nil)
}

func writeTimeSeries(cw *csv.Writer, r *report.Report) {
	cw.Write([]string{"# Section: Time Series Data"})
	cw.Write([]string{"timestamp", "elapsed_s", "current_hr", "pace"})
	s := r.Series
	for i := 0; i < s.Len(); i++ {
		ts := r.StartTime.Add(time.Duration(s.Time[i]) * time.Second)
		cw.Write([]string{
			ts.Format("15:04:05"),
			fmt.Sprintf("%.0f", s.Time[i]),
			fmt.Sprintf("%.0f", s.HeartRate[i]),
			fmt.Sprintf("%.2f", s.Pace[i]),
		})
	}
}

// formatSWOLF renders "n/a" for workout types where SWOLF does not apply.
func formatSWOLF(r *report.Report) string {
	if !r.SWOLFApplicable {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", r.SWOLF)
}

func formatHMS(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}
