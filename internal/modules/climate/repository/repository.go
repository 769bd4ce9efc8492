package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climate-server/internal/metrics"
	"climate-server/internal/modules/climate/types"
)

//go:embed sql/observations-in-range.sql
var observationsInRangeSQL string

//go:embed sql/station-counts.sql
var stationCountsSQL string

//go:embed sql/station-extremes.sql
var stationExtremesSQL string

//go:embed sql/latest-date.sql
var latestDateSQL string

//go:embed sql/temperature-stats.sql
var temperatureStatsSQL string

//go:embed sql/daily-normals.sql
var dailyNormalsSQL string

//go:embed sql/temperature-observations.sql
var temperatureObservationsSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/station-exists.sql
var stationExistsSQL string

//go:embed sql/rainfall-by-station.sql
var rainfallByStationSQL string

//go:embed sql/precipitation-values.sql
var precipitationValuesSQL string

var (
	// ErrStationNotFound is returned when a station id appears in neither relation.
	ErrStationNotFound = errors.New("station not found")
	// ErrNoObservations is returned when the measurement relation is empty.
	ErrNoObservations = errors.New("no observations")
)

type ClimateRepository interface {
	ObservationsInRange(ctx context.Context, start, end types.Date) ([]types.Observation, error)
	StationCounts(ctx context.Context) ([]types.StationCount, error)
	// StationExtremes returns nil stats when the station exists but no row matches.
	StationExtremes(ctx context.Context, stationID string, start, end *types.Date) (*types.TemperatureStats, error)
	LatestDate(ctx context.Context) (types.Date, error)
	TemperatureStats(ctx context.Context, start, end types.Date) (*types.TemperatureStats, error)
	DailyNormals(ctx context.Context, key types.MonthDayKey) (*types.TemperatureStats, error)
	TemperatureObservations(ctx context.Context, stationID string, start, end types.Date) ([]types.TemperatureObservation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	StationExists(ctx context.Context, stationID string) (bool, error)
	RainfallByStation(ctx context.Context, start, end types.Date) ([]types.StationRainfall, error)
	// PrecipitationValues returns the non-null readings in [start, end], ascending.
	PrecipitationValues(ctx context.Context, start, end types.Date) ([]float64, error)
}

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repositoryImpl struct {
	q querier
}

func (r *repositoryImpl) ObservationsInRange(ctx context.Context, start, end types.Date) (out []types.Observation, err error) {
	defer observe("observations_in_range", time.Now(), &err)
	rows, err := r.q.QueryContext(ctx, observationsInRangeSQL, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "observations")

	out = []types.Observation{}
	for rows.Next() {
		var (
			o    types.Observation
			date string
			prcp sql.NullFloat64
			tobs sql.NullFloat64
		)
		if err := rows.Scan(&o.StationID, &date, &prcp, &tobs); err != nil {
			return nil, err
		}
		if o.Date, err = types.ParseDate(date); err != nil {
			return nil, err
		}
		o.Precipitation = nullableFloat(prcp)
		o.Temperature = nullableFloat(tobs)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationCounts(ctx context.Context) (out []types.StationCount, err error) {
	defer observe("station_counts", time.Now(), &err)
	rows, err := r.q.QueryContext(ctx, stationCountsSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "station counts")

	out = []types.StationCount{}
	for rows.Next() {
		var c types.StationCount
		if err := rows.Scan(&c.StationID, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationExtremes(ctx context.Context, stationID string, start, end *types.Date) (_ *types.TemperatureStats, err error) {
	defer observe("station_extremes", time.Now(), &err)
	exists, err := r.StationExists(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrStationNotFound, stationID)
	}
	startArg, endArg := optionalDate(start), optionalDate(end)
	row := r.q.QueryRowContext(ctx, stationExtremesSQL, stationID, startArg, startArg, endArg, endArg)
	return scanStats(row)
}

func (r *repositoryImpl) LatestDate(ctx context.Context) (_ types.Date, err error) {
	defer observe("latest_date", time.Now(), &err)
	var latest sql.NullString
	if err := r.q.QueryRowContext(ctx, latestDateSQL).Scan(&latest); err != nil {
		return types.Date{}, err
	}
	if !latest.Valid {
		return types.Date{}, ErrNoObservations
	}
	return types.ParseDate(latest.String)
}

func (r *repositoryImpl) TemperatureStats(ctx context.Context, start, end types.Date) (_ *types.TemperatureStats, err error) {
	defer observe("temperature_stats", time.Now(), &err)
	return scanStats(r.q.QueryRowContext(ctx, temperatureStatsSQL, start.String(), end.String()))
}

func (r *repositoryImpl) DailyNormals(ctx context.Context, key types.MonthDayKey) (_ *types.TemperatureStats, err error) {
	defer observe("daily_normals", time.Now(), &err)
	return scanStats(r.q.QueryRowContext(ctx, dailyNormalsSQL, key.String()))
}

func (r *repositoryImpl) TemperatureObservations(ctx context.Context, stationID string, start, end types.Date) (out []types.TemperatureObservation, err error) {
	defer observe("temperature_observations", time.Now(), &err)
	rows, err := r.q.QueryContext(ctx, temperatureObservationsSQL, stationID, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "temperature observations")

	out = []types.TemperatureObservation{}
	for rows.Next() {
		var (
			o    types.TemperatureObservation
			date string
		)
		if err := rows.Scan(&o.Temperature, &date, &o.StationID); err != nil {
			return nil, err
		}
		if o.Date, err = types.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Stations(ctx context.Context) (out []types.Station, err error) {
	defer observe("stations", time.Now(), &err)
	rows, err := r.q.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "stations")

	out = []types.Station{}
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.StationID, &s.Name, &s.Latitude, &s.Longitude, &s.Elevation); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationExists(ctx context.Context, stationID string) (exists bool, err error) {
	defer observe("station_exists", time.Now(), &err)
	err = r.q.QueryRowContext(ctx, stationExistsSQL, stationID, stationID).Scan(&exists)
	return exists, err
}

func (r *repositoryImpl) RainfallByStation(ctx context.Context, start, end types.Date) (out []types.StationRainfall, err error) {
	defer observe("rainfall_by_station", time.Now(), &err)
	rows, err := r.q.QueryContext(ctx, rainfallByStationSQL, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "rainfall")

	out = []types.StationRainfall{}
	for rows.Next() {
		var s types.StationRainfall
		if err := rows.Scan(&s.StationID, &s.Name, &s.Latitude, &s.Longitude, &s.Elevation, &s.TotalPrecipitation); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) PrecipitationValues(ctx context.Context, start, end types.Date) (out []float64, err error) {
	defer observe("precipitation_values", time.Now(), &err)
	rows, err := r.q.QueryContext(ctx, precipitationValuesSQL, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "precipitation values")

	out = []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// scanStats reads a COUNT/MIN/AVG/MAX row. Zero matched rows yield nil, never a division.
func scanStats(row *sql.Row) (*types.TemperatureStats, error) {
	var (
		count         int
		lo, avg, high sql.NullFloat64
	)
	if err := row.Scan(&count, &lo, &avg, &high); err != nil {
		return nil, err
	}
	if count == 0 || !lo.Valid || !avg.Valid || !high.Valid {
		return nil, nil
	}
	return &types.TemperatureStats{Min: lo.Float64, Avg: avg.Float64, Max: high.Float64, Count: count}, nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.ObserveQuery(operation, start, *err)
}

func optionalDate(d *types.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close "+what+" rows", "error", err)
	}
}
