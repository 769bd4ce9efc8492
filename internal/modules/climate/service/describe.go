package service

import (
	"math"

	"climate-server/internal/modules/climate/types"
)

// describePrecipitation summarises sorted readings. Quartiles interpolate
// linearly between the closest ranks.
func describePrecipitation(sorted []float64) types.PrecipitationSummary {
	out := types.PrecipitationSummary{Count: len(sorted)}
	n := len(sorted)
	if n == 0 {
		return out
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)
	out.Mean = &mean
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		std := math.Sqrt(sq / float64(n-1))
		out.Std = &std
	}

	lo, high := sorted[0], sorted[n-1]
	p25, p50, p75 := quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75)
	out.Min, out.P25, out.Median, out.P75, out.Max = &lo, &p25, &p50, &p75, &high
	return out
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
