package service

import (
	"context"
	"errors"
	"fmt"

	"climate-server/internal/logging"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

var (
	// ErrInvalidRange is returned when an explicit start is after its end.
	ErrInvalidRange = errors.New("start must be on or before end")
	// ErrTripTooLong is returned when a trip spans more days than allowed.
	ErrTripTooLong = errors.New("trip too long")
	// ErrInvalidMerge is returned for an unknown precipitation merge policy.
	ErrInvalidMerge = errors.New("invalid merge policy")
)

// ClimateService answers the API and CLI questions. Every call runs inside a
// single read session.
type ClimateService interface {
	Precipitation(ctx context.Context, merge MergePolicy) (map[string]*float64, error)
	// PrecipitationSummary describes the trailing year of precipitation readings.
	PrecipitationSummary(ctx context.Context) (types.PrecipitationSummary, error)
	StationCounts(ctx context.Context) ([]types.StationCount, error)
	Stations(ctx context.Context) ([]types.Station, error)
	// MostActiveTemperatures returns the trailing year of readings for the station with the most rows.
	MostActiveTemperatures(ctx context.Context) ([]types.TemperatureObservation, error)
	// RangeStats summarises [start, end]; a nil end means the latest stored date.
	RangeStats(ctx context.Context, start types.Date, end *types.Date) (types.RangeStats, error)
	StationExtremes(ctx context.Context, stationID string, start, end *types.Date) (*types.TemperatureStats, error)
	DailyNormal(ctx context.Context, key types.MonthDayKey) (*types.TemperatureStats, error)
	TripNormals(ctx context.Context, start, end types.Date) ([]types.DailyNormal, error)
	Rainfall(ctx context.Context, start, end types.Date) ([]types.StationRainfall, error)
	Summary(ctx context.Context) (Summary, error)
}

// Summary is the dataset overview printed by the CLI.
type Summary struct {
	Latest     *types.Date             `json:"latest"`
	Stations   int                     `json:"stations"`
	MostActive *types.StationCount     `json:"most_active"`
	Extremes   *types.TemperatureStats `json:"extremes"`
	// Precipitation covers the trailing year.
	Precipitation types.PrecipitationSummary `json:"precipitation"`
}

type Service struct {
	reader      repository.Reader
	maxTripDays int
}

func NewService(reader repository.Reader, maxTripDays int) *Service {
	return &Service{reader: reader, maxTripDays: maxTripDays}
}

func (s *Service) Precipitation(ctx context.Context, merge MergePolicy) (map[string]*float64, error) {
	if _, err := ParseMergePolicy(string(merge)); err != nil {
		return nil, err
	}
	var out map[string]*float64
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) error {
		latest, err := repo.LatestDate(ctx)
		if errors.Is(err, repository.ErrNoObservations) {
			out = map[string]*float64{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("latest date: %w", err)
		}
		window := types.TrailingYear(latest)
		rows, err := repo.ObservationsInRange(ctx, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("observations in range: %w", err)
		}
		out = mergePrecipitation(rows, merge)
		return nil
	})
	return out, err
}

func (s *Service) PrecipitationSummary(ctx context.Context) (types.PrecipitationSummary, error) {
	var out types.PrecipitationSummary
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) (err error) {
		out, err = precipitationSummary(ctx, repo)
		return err
	})
	return out, err
}

func precipitationSummary(ctx context.Context, repo repository.ClimateRepository) (types.PrecipitationSummary, error) {
	latest, err := repo.LatestDate(ctx)
	if errors.Is(err, repository.ErrNoObservations) {
		return types.PrecipitationSummary{}, nil
	}
	if err != nil {
		return types.PrecipitationSummary{}, fmt.Errorf("latest date: %w", err)
	}
	window := types.TrailingYear(latest)
	values, err := repo.PrecipitationValues(ctx, window.Start, window.End)
	if err != nil {
		return types.PrecipitationSummary{}, fmt.Errorf("precipitation values: %w", err)
	}
	out := describePrecipitation(values)
	out.Start, out.End = &window.Start, &window.End
	return out, nil
}

func (s *Service) StationCounts(ctx context.Context) ([]types.StationCount, error) {
	var out []types.StationCount
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) (err error) {
		out, err = repo.StationCounts(ctx)
		return err
	})
	return out, err
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	var out []types.Station
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) (err error) {
		out, err = repo.Stations(ctx)
		return err
	})
	return out, err
}

func (s *Service) MostActiveTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	out := []types.TemperatureObservation{}
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) error {
		counts, err := repo.StationCounts(ctx)
		if err != nil {
			return fmt.Errorf("station counts: %w", err)
		}
		if len(counts) == 0 {
			return nil
		}
		latest, err := repo.LatestDate(ctx)
		if err != nil {
			return fmt.Errorf("latest date: %w", err)
		}
		window := types.TrailingYear(latest)
		logging.FromContext(ctx).Debug("most active station", "station", counts[0].StationID, "count", counts[0].Count)
		out, err = repo.TemperatureObservations(ctx, counts[0].StationID, window.Start, window.End)
		return err
	})
	return out, err
}

func (s *Service) RangeStats(ctx context.Context, start types.Date, end *types.Date) (types.RangeStats, error) {
	if end != nil && start.After(*end) {
		return types.RangeStats{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, *end)
	}
	var out types.RangeStats
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) error {
		r := types.DateRange{Start: start}
		if end != nil {
			r.End = *end
		} else {
			latest, err := repo.LatestDate(ctx)
			switch {
			case errors.Is(err, repository.ErrNoObservations):
				out = types.NewRangeStats(types.DateRange{Start: start, End: start}, nil)
				return nil
			case err != nil:
				return fmt.Errorf("latest date: %w", err)
			}
			r.End = latest
		}
		stats, err := repo.TemperatureStats(ctx, r.Start, r.End)
		if err != nil {
			return fmt.Errorf("temperature stats: %w", err)
		}
		out = types.NewRangeStats(r, stats)
		return nil
	})
	return out, err
}

func (s *Service) StationExtremes(ctx context.Context, stationID string, start, end *types.Date) (*types.TemperatureStats, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, *start, *end)
	}
	var out *types.TemperatureStats
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) (err error) {
		out, err = repo.StationExtremes(ctx, stationID, start, end)
		return err
	})
	return out, err
}

func (s *Service) DailyNormal(ctx context.Context, key types.MonthDayKey) (*types.TemperatureStats, error) {
	var out *types.TemperatureStats
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) (err error) {
		out, err = repo.DailyNormals(ctx, key)
		return err
	})
	return out, err
}

// TripNormals computes the daily normal for each day of the trip, in trip order.
func (s *Service) TripNormals(ctx context.Context, start, end types.Date) ([]types.DailyNormal, error) {
	trip := types.DateRange{Start: start, End: end}
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	if days := trip.Days(); s.maxTripDays > 0 && days > s.maxTripDays {
		return nil, fmt.Errorf("%w: %d days exceeds %d", ErrTripTooLong, days, s.maxTripDays)
	}

	out := make([]types.DailyNormal, 0, trip.Days())
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) error {
		for d := start; !d.After(end); d = d.AddDays(1) {
			stats, err := repo.DailyNormals(ctx, d.MonthDay())
			if err != nil {
				return fmt.Errorf("daily normals %s: %w", d.MonthDay(), err)
			}
			out = append(out, types.DailyNormal{Date: d, MonthDay: d.MonthDay(), Stats: stats})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Rainfall(ctx context.Context, start, end types.Date) ([]types.StationRainfall, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	var out []types.StationRainfall
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) (err error) {
		out, err = repo.RainfallByStation(ctx, start, end)
		return err
	})
	return out, err
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := s.reader.Read(ctx, func(repo repository.ClimateRepository) error {
		latest, err := repo.LatestDate(ctx)
		switch {
		case errors.Is(err, repository.ErrNoObservations):
		case err != nil:
			return fmt.Errorf("latest date: %w", err)
		default:
			out.Latest = &latest
		}

		if out.Precipitation, err = precipitationSummary(ctx, repo); err != nil {
			return err
		}

		stations, err := repo.Stations(ctx)
		if err != nil {
			return fmt.Errorf("stations: %w", err)
		}
		out.Stations = len(stations)

		counts, err := repo.StationCounts(ctx)
		if err != nil {
			return fmt.Errorf("station counts: %w", err)
		}
		if len(counts) == 0 {
			return nil
		}
		out.MostActive = &counts[0]
		out.Extremes, err = repo.StationExtremes(ctx, counts[0].StationID, nil, nil)
		return err
	})
	return out, err
}
