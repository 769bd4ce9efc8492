package types

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DateLayout is how dates are stored and exchanged.
const DateLayout = "2006-01-02"

// Date is a calendar date at UTC midnight.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

func (d Date) MonthDay() MonthDayKey {
	return MonthDayKey{Month: d.Month(), Day: d.Day()}
}

func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is inclusive on both ends.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Days returns the number of calendar days in the range, 0 when Start > End.
func (r DateRange) Days() int {
	if r.Start.After(r.End) {
		return 0
	}
	return int(r.End.Unix()/secondsPerDay-r.Start.Unix()/secondsPerDay) + 1
}

const secondsPerDay = 24 * 60 * 60

// TrailingYear is [latest - 365 days, latest].
func TrailingYear(latest Date) DateRange {
	return DateRange{Start: latest.AddDays(-365), End: latest}
}

// MonthDayKey is a date with the year dropped.
type MonthDayKey struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses "MM-DD". February 29 is accepted.
func ParseMonthDay(s string) (MonthDayKey, error) {
	if len(s) != 5 || s[2] != '-' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return MonthDayKey{}, fmt.Errorf("invalid month-day %q (expected MM-DD)", s)
	}
	m := int(s[0]-'0')*10 + int(s[1]-'0')
	d := int(s[3]-'0')*10 + int(s[4]-'0')
	// 2000 is a leap year, so 02-29 round-trips.
	t := time.Date(2000, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if m < 1 || m > 12 || t.Month() != time.Month(m) || t.Day() != d {
		return MonthDayKey{}, fmt.Errorf("invalid month-day %q (no such calendar day)", s)
	}
	return MonthDayKey{Month: time.Month(m), Day: d}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (k MonthDayKey) String() string {
	return fmt.Sprintf("%02d-%02d", int(k.Month), k.Day)
}

func (k MonthDayKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

type Observation struct {
	StationID     string   `json:"station"`
	Date          Date     `json:"date"`
	Precipitation *float64 `json:"precipitation"`
	Temperature   *float64 `json:"temperature"`
}

type Station struct {
	StationID string  `json:"station"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

type StationCount struct {
	StationID string `json:"station"`
	Name      string `json:"name,omitempty"`
	Count     int    `json:"count"`
}

// TemperatureObservation is one literal temperature row.
type TemperatureObservation struct {
	Temperature float64 `json:"temperature"`
	Date        Date    `json:"date"`
	StationID   string  `json:"station"`
}

// TemperatureStats summarises a non-empty set of temperature readings.
// A nil *TemperatureStats means no rows matched.
type TemperatureStats struct {
	Min   float64 `json:"min"`
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// DailyNormal is the historical temperature summary for one trip day.
type DailyNormal struct {
	Date     Date              `json:"date"`
	MonthDay MonthDayKey       `json:"month_day"`
	Stats    *TemperatureStats `json:"normals"`
}

type StationRainfall struct {
	Station
	TotalPrecipitation float64 `json:"total_precipitation"`
}

// RangeStats is the temperature summary for a date range. Min, Avg and Max
// are null when no reading falls in the range.
type RangeStats struct {
	Start Date     `json:"start"`
	End   Date     `json:"end"`
	Min   *float64 `json:"min"`
	Avg   *float64 `json:"avg"`
	Max   *float64 `json:"max"`
	Count int      `json:"count"`
}

func NewRangeStats(r DateRange, s *TemperatureStats) RangeStats {
	out := RangeStats{Start: r.Start, End: r.End}
	if s == nil {
		return out
	}
	lo, avg, high := s.Min, s.Avg, s.Max
	out.Min, out.Avg, out.Max, out.Count = &lo, &avg, &high, s.Count
	return out
}

// PrecipitationSummary describes the precipitation readings of a window:
// count, mean, sample standard deviation, min, quartiles and max. Null
// readings are ignored. Every statistic is null when Count is 0, and Std is
// also null for a single reading.
type PrecipitationSummary struct {
	Start  *Date    `json:"start"`
	End    *Date    `json:"end"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	P25    *float64 `json:"p25"`
	Median *float64 `json:"p50"`
	P75    *float64 `json:"p75"`
	Max    *float64 `json:"max"`
}
