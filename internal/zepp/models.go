package zepp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Number handles the Zepp API's inconsistent numeric encoding: the same field
// may arrive as a JSON number ("calorie": 241) or as a quoted string
// ("calorie": "241.0"), depending on the device firmware that recorded the
// workout. Empty strings and null decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

// Float64 returns the value as a plain float64.
func (n Number) Float64() float64 { return float64(n) }

// WorkoutSummary is one exercise session's header record from the history
// endpoint. Field names mirror the upstream JSON exactly. Immutable once
// fetched.
type WorkoutSummary struct {
	TrackID string `json:"trackid"`
	Source  string `json:"source"`
	Type    Number `json:"type"`

	Distance     Number `json:"dis"`
	Calories     Number `json:"calorie"`
	RunTime      Number `json:"run_time"` // raw encoded elapsed-time value
	ExerciseLoad Number `json:"exercise_load"`
	AvgHeartRate Number `json:"avg_heart_rate"`

	// Swim-specific fields; zero for land workouts.
	TotalTrips           Number `json:"total_trips"` // lap count
	PoolLength           Number `json:"swim_pool_length"`
	SWOLF                Number `json:"swolf"`
	TotalStrokes         Number `json:"total_strokes"`
	AvgStrokeSpeed       Number `json:"avg_stroke_speed"`
	MaxStrokeSpeed       Number `json:"max_stroke_speed"`
	AvgDistancePerStroke Number `json:"avg_distance_per_stroke"`
	SwimStyle            Number `json:"swim_style"`

	TrainingEffect Number `json:"te"`
}

// StartTime derives the workout start from the track ID, which the upstream
// API encodes as a unix timestamp in seconds.
func (w *WorkoutSummary) StartTime() (time.Time, error) {
	sec, err := strconv.ParseInt(w.TrackID, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("track id %q is not a timestamp: %w", w.TrackID, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// IsSwim reports whether the session was recorded in a pool. The upstream
// API marks pool swims with a positive pool length.
func (w *WorkoutSummary) IsSwim() bool {
	return w.PoolLength > 0
}

// WorkoutDetail carries the raw delimited series strings for one session.
// Immutable once fetched.
type WorkoutDetail struct {
	Time      string `json:"time"`
	HeartRate string `json:"heart_rate"`
	Pace      string `json:"pace"`
}

// historyResponse is the envelope of /v1/sport/run/history.json.
type historyResponse struct {
	Code Number `json:"code"`
	Data struct {
		Next    Number           `json:"next"`
		Summary []WorkoutSummary `json:"summary"`
	} `json:"data"`
}

// detailResponse is the envelope of /v1/sport/run/detail.json.
type detailResponse struct {
	Code Number        `json:"code"`
	Data WorkoutDetail `json:"data"`
}
