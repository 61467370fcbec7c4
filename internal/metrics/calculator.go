// Package metrics derives summary statistics from a decoded workout series.
// Everything here is a pure function over in-memory data — no I/O.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Tilodry/zepp-extractor/internal/series"
	"github.com/Tilodry/zepp-extractor/internal/zepp"
)

// Params parameterize the derived-metric computation. The zone boundaries and
// movement threshold are deliberately configurable — the upstream
// documentation does not pin them down.
type Params struct {
	// HRMaxTheoretical is the theoretical maximum heart rate (e.g. 220 - age)
	// used for zone binning.
	HRMaxTheoretical float64

	// MovementThreshold is the pace value above which a sample counts as
	// movement. Zero means any positive pace is movement.
	MovementThreshold float64

	// ZoneBounds are ascending fractions of HRMaxTheoretical separating the
	// heart-rate bands. The defaults give <60%, 60-70%, 70-80%, 80-90%, 90%+.
	ZoneBounds []float64
}

// DefaultParams returns the documented default parameters.
func DefaultParams() Params {
	return Params{
		HRMaxTheoretical:  196,
		MovementThreshold: 0,
		ZoneBounds:        []float64{0.6, 0.7, 0.8, 0.9},
	}
}

// Zone is the time spent in one heart-rate intensity band.
type Zone struct {
	Label   string
	Low     float64 // band lower bound in bpm, inclusive
	High    float64 // band upper bound in bpm, exclusive; 0 = unbounded
	Seconds float64
	Percent float64 // share of total elapsed time
}

// Derived is the read-only aggregate computed once per workout. A zero-sample
// series yields a zero Derived, never an error.
type Derived struct {
	Samples   int
	Truncated bool

	TotalDistance float64 // meters
	AvgPace       float64 // distance over active time
	PercentMoving float64
	PercentIdle   float64

	HRMax      float64
	HRMin      float64
	HRMean     float64
	HRVariance float64 // population variance
	Zones      []Zone

	// SWOLF applies to pool swims only; SWOLFApplicable is false otherwise.
	SWOLF           float64
	SWOLFApplicable bool

	EffortSeconds float64
	RestSeconds   float64
}

// Compute derives the full metric set from a workout summary and its decoded
// series.
func Compute(sum *zepp.WorkoutSummary, s *series.Series, p Params) Derived {
	if p.HRMaxTheoretical <= 0 {
		p.HRMaxTheoretical = DefaultParams().HRMaxTheoretical
	}
	if len(p.ZoneBounds) == 0 {
		p.ZoneBounds = DefaultParams().ZoneBounds
	}

	d := Derived{Samples: s.Len()}
	if s != nil {
		d.Truncated = s.Truncated
	}
	if d.Samples == 0 {
		return d
	}

	d.TotalDistance = totalDistance(sum)

	moving := make([]bool, d.Samples)
	movingCount := 0
	for i, pace := range s.Pace {
		if pace > p.MovementThreshold {
			moving[i] = true
			movingCount++
		}
	}
	d.PercentMoving = float64(movingCount) / float64(d.Samples) * 100
	d.PercentIdle = 100 - d.PercentMoving

	// Each time delta is attributed to the later of its two samples, so the
	// interval leading into sample i inherits sample i's classification.
	var activeTime, totalTime float64
	for i := 1; i < d.Samples; i++ {
		dt := s.Time[i] - s.Time[i-1]
		if dt < 0 {
			dt = 0
		}
		totalTime += dt
		if moving[i] {
			activeTime += dt
			d.EffortSeconds += dt
		} else {
			d.RestSeconds += dt
		}
	}
	if activeTime > 0 {
		d.AvgPace = d.TotalDistance / activeTime
	}

	d.HRMax = floats.Max(s.HeartRate)
	d.HRMin = floats.Min(s.HeartRate)
	d.HRMean = stat.Mean(s.HeartRate, nil)
	d.HRVariance = stat.PopVariance(s.HeartRate, nil)

	d.Zones = timeInZones(s, p, totalTime)

	if sum.IsSwim() {
		d.SWOLF = swolf(sum, s)
		d.SWOLFApplicable = true
	}

	return d
}

// totalDistance prefers laps x pool length for pool swims, falling back to
// the summary's own distance field.
func totalDistance(sum *zepp.WorkoutSummary) float64 {
	if sum.IsSwim() && sum.TotalTrips > 0 {
		return sum.TotalTrips.Float64() * sum.PoolLength.Float64()
	}
	return sum.Distance.Float64()
}

// timeInZones bins each sample's heart rate into a band and sums the time
// delta attributed to that sample into the band's total.
func timeInZones(s *series.Series, p Params, totalTime float64) []Zone {
	zones := buildZones(p)
	for i := 1; i < s.Len(); i++ {
		dt := s.Time[i] - s.Time[i-1]
		if dt <= 0 {
			continue
		}
		zi := zoneIndex(zones, s.HeartRate[i])
		zones[zi].Seconds += dt
	}
	if totalTime > 0 {
		for i := range zones {
			zones[i].Percent = zones[i].Seconds / totalTime * 100
		}
	}
	return zones
}

func buildZones(p Params) []Zone {
	zones := make([]Zone, 0, len(p.ZoneBounds)+1)
	low, lowFrac := 0.0, 0.0
	for _, frac := range p.ZoneBounds {
		high := frac * p.HRMaxTheoretical
		label := fmt.Sprintf("Z%d (%.0f-%.0f%%)", len(zones)+1, lowFrac*100, frac*100)
		if lowFrac == 0 {
			label = fmt.Sprintf("Z%d (<%.0f%%)", len(zones)+1, frac*100)
		}
		zones = append(zones, Zone{Label: label, Low: low, High: high})
		low, lowFrac = high, frac
	}
	zones = append(zones, Zone{
		Label: fmt.Sprintf("Z%d (%.0f%%+)", len(zones)+1, lowFrac*100),
		Low:   low,
	})
	return zones
}

// zoneIndex returns the band containing hr. Bands are [Low, High), with the
// last band unbounded above.
func zoneIndex(zones []Zone, hr float64) int {
	for i, z := range zones[:len(zones)-1] {
		if hr >= z.Low && hr < z.High {
			return i
		}
	}
	return len(zones) - 1
}

// swolf computes the swimming efficiency score: per-lap time plus per-lap
// stroke count. The watch reports its own value in the summary; when present
// it wins, since it accounts for per-length variation we can't see here.
func swolf(sum *zepp.WorkoutSummary, s *series.Series) float64 {
	if sum.SWOLF > 0 {
		return sum.SWOLF.Float64()
	}
	laps := sum.TotalTrips.Float64()
	if laps <= 0 {
		return 0
	}
	elapsed := s.Time[s.Len()-1]
	return elapsed/laps + sum.TotalStrokes.Float64()/laps
}
