// Package series decodes the Zepp API's compact delimited string encodings
// of per-workout heart-rate, pace, and elapsed-time samples into aligned
// numeric sequences.
package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedSeries marks an unparsable or physiologically invalid series
// string. Callers are expected to log and skip the offending workout.
var ErrMalformedSeries = errors.New("malformed series")

// DefaultHRCeiling is the sane physiological upper bound for a reconstructed
// heart-rate sample. Values above it indicate corrupted input.
const DefaultHRCeiling = 250

// Series holds the three decoded sequences for one workout, truncated to a
// common length. Truncated records that the raw strings disagreed on sample
// count — a known upstream data-quality issue, not an error.
type Series struct {
	HeartRate []float64 // absolute bpm, reconstructed from deltas
	Pace      []float64
	Time      []float64 // cumulative seconds
	Truncated bool
}

// Len returns the aligned sample count.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.HeartRate)
}

// Decode parses the three raw series strings and aligns them to the shortest
// sequence. hrCeiling bounds the reconstructed heart-rate values; pass 0 to
// use DefaultHRCeiling.
func Decode(heartRate, pace, elapsed string, hrCeiling float64) (*Series, error) {
	if hrCeiling <= 0 {
		hrCeiling = DefaultHRCeiling
	}

	hr, err := decodeHeartRate(heartRate, hrCeiling)
	if err != nil {
		return nil, err
	}
	paces, err := decodePace(pace)
	if err != nil {
		return nil, err
	}
	times, err := decodeTimes(elapsed)
	if err != nil {
		return nil, err
	}

	n := len(hr)
	if len(paces) < n {
		n = len(paces)
	}
	if len(times) < n {
		n = len(times)
	}
	truncated := len(hr) != n || len(paces) != n || len(times) != n

	return &Series{
		HeartRate: hr[:n],
		Pace:      paces[:n],
		Time:      times[:n],
		Truncated: truncated,
	}, nil
}

// decodeHeartRate reconstructs absolute heart-rate values from the upstream
// cumulative-delta encoding: "ts,105;ts,2;ts,-1;..." where the first value
// is absolute and each subsequent one is a signed delta. Segments may also
// carry the bare value without a timestamp prefix.
func decodeHeartRate(s string, ceiling float64) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var out []float64
	current := 0.0
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		// Last comma-separated field is the value; the prefix, when
		// present, is a device timestamp we don't need.
		parts := strings.Split(seg, ",")
		token := strings.TrimSpace(parts[len(parts)-1])
		if token == "" {
			continue
		}

		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: heart-rate token %q is not numeric", ErrMalformedSeries, token)
		}

		if len(out) == 0 {
			current = v
		} else {
			current += v
		}
		if current < 0 {
			return nil, fmt.Errorf("%w: heart rate dropped below zero at sample %d", ErrMalformedSeries, len(out))
		}
		if current > ceiling {
			return nil, fmt.Errorf("%w: heart rate %.0f exceeds ceiling %.0f at sample %d", ErrMalformedSeries, current, ceiling, len(out))
		}
		out = append(out, current)
	}
	return out, nil
}

// decodePace parses the pace string. The upstream format uses a comma as the
// decimal separator and pads gaps with empty tokens, which decode to zero.
func decodePace(s string) ([]float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	return decodeNumeric(s, "pace")
}

// decodeTimes parses the elapsed-time string into cumulative seconds. Empty
// tokens decode to zero, like pace.
func decodeTimes(s string) ([]float64, error) {
	return decodeNumeric(s, "time")
}

func decodeNumeric(s, kind string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	tokens := strings.Split(s, ";")
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			out = append(out, 0)
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s token %q is not numeric", ErrMalformedSeries, kind, tok)
		}
		out = append(out, v)
	}
	return out, nil
}
