package controller

import "climate-server/internal/modules/climate/types"

// No data renders as null min/avg/max with a zero count.

type stationExtremesResponse struct {
	Station string      `json:"station"`
	Start   *types.Date `json:"start"`
	End     *types.Date `json:"end"`
	Min     *float64    `json:"min"`
	Avg     *float64    `json:"avg"`
	Max     *float64    `json:"max"`
	Count   int         `json:"count"`
}

func stationExtremesBody(id string, start, end *types.Date, s *types.TemperatureStats) stationExtremesResponse {
	out := stationExtremesResponse{Station: id, Start: start, End: end}
	out.Min, out.Avg, out.Max, out.Count = flattenStats(s)
	return out
}

type dailyNormalResponse struct {
	MonthDay types.MonthDayKey `json:"month_day"`
	Min      *float64          `json:"min"`
	Avg      *float64          `json:"avg"`
	Max      *float64          `json:"max"`
	Count    int               `json:"count"`
}

func dailyNormalBody(key types.MonthDayKey, s *types.TemperatureStats) dailyNormalResponse {
	out := dailyNormalResponse{MonthDay: key}
	out.Min, out.Avg, out.Max, out.Count = flattenStats(s)
	return out
}

func flattenStats(s *types.TemperatureStats) (lo, avg, high *float64, count int) {
	if s == nil {
		return nil, nil, nil, 0
	}
	r := types.NewRangeStats(types.DateRange{}, s)
	return r.Min, r.Avg, r.Max, r.Count
}
