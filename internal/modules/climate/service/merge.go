package service

import (
	"fmt"

	"climate-server/internal/modules/climate/types"
)

// MergePolicy decides how several same-day precipitation readings collapse
// into the single value keyed by that date.
type MergePolicy string

const (
	MergeAvg  MergePolicy = "avg"
	MergeSum  MergePolicy = "sum"
	MergeMax  MergePolicy = "max"
	MergeLast MergePolicy = "last"
)

// ParseMergePolicy maps the empty string to MergeAvg.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch p := MergePolicy(s); p {
	case "":
		return MergeAvg, nil
	case MergeAvg, MergeSum, MergeMax, MergeLast:
		return p, nil
	default:
		return "", fmt.Errorf("%w %q (expected avg, sum, max or last)", ErrInvalidMerge, s)
	}
}

// mergePrecipitation expects rows ordered by date then station. Null readings
// are ignored; a date whose readings are all null maps to nil.
func mergePrecipitation(rows []types.Observation, policy MergePolicy) map[string]*float64 {
	if policy == "" {
		policy = MergeAvg
	}
	type acc struct {
		sum, max, last float64
		n              int
	}
	byDate := make(map[string]*acc)
	for _, o := range rows {
		key := o.Date.String()
		a, ok := byDate[key]
		if !ok {
			a = &acc{}
			byDate[key] = a
		}
		if o.Precipitation == nil {
			continue
		}
		v := *o.Precipitation
		if a.n == 0 || v > a.max {
			a.max = v
		}
		a.sum += v
		a.last = v
		a.n++
	}

	out := make(map[string]*float64, len(byDate))
	for key, a := range byDate {
		if a.n == 0 {
			out[key] = nil
			continue
		}
		var v float64
		switch policy {
		case MergeSum:
			v = a.sum
		case MergeMax:
			v = a.max
		case MergeLast:
			v = a.last
		default:
			v = a.sum / float64(a.n)
		}
		out[key] = &v
	}
	return out
}
