package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"climate-server/internal/config"
	"climate-server/internal/db"
	"climate-server/internal/logging"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
	"climate-server/internal/modules/climate/types"
)

const (
	appName = "climate"
	version = "dev"
)

const usage = `usage: climate <command> [flags]
  verify                      check the database schema
  summary                     latest date, stations, most active station, precipitation
  temps    -start D [-end D]  min/avg/max temperature over a range
  normals  -start D -end D    daily normals for each day of a trip
  rainfall -start D -end D    total precipitation per station
flags:
  -json                       print JSON instead of text
`

var errUsage = errors.New("usage")

var commands = map[string]bool{"verify": true, "summary": true, "temps": true, "normals": true, "rainfall": true}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

// newLogger keeps logs off stdout, which carries command output.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	return logging.NewWithWriter(w, cfg, version, appName)
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	cmd := args[0]
	if !commands[cmd] {
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	startFlag := fs.String("start", "", "start date (YYYY-MM-DD)")
	endFlag := fs.String("end", "", "end date (YYYY-MM-DD)")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	svc := service.NewService(repository.NewReader(conn), cfg.MaxTripDays)
	p := printer{out: out, json: *asJSON}

	switch cmd {
	case "verify":
		if err := db.VerifySchema(ctx, conn); err != nil {
			return err
		}
		return p.text("schema ok\n")
	case "summary":
		sum, err := svc.Summary(ctx)
		if err != nil {
			return err
		}
		return p.summary(sum)
	case "temps":
		start, err := types.ParseDate(*startFlag)
		if err != nil {
			return fmt.Errorf("temps: -start: %w", err)
		}
		var end *types.Date
		if *endFlag != "" {
			d, err := types.ParseDate(*endFlag)
			if err != nil {
				return fmt.Errorf("temps: -end: %w", err)
			}
			end = &d
		}
		stats, err := svc.RangeStats(ctx, start, end)
		if err != nil {
			return err
		}
		return p.rangeStats(stats)
	case "normals", "rainfall":
		start, err := types.ParseDate(*startFlag)
		if err != nil {
			return fmt.Errorf("%s: -start: %w", cmd, err)
		}
		end, err := types.ParseDate(*endFlag)
		if err != nil {
			return fmt.Errorf("%s: -end: %w", cmd, err)
		}
		if cmd == "normals" {
			normals, err := svc.TripNormals(ctx, start, end)
			if err != nil {
				return err
			}
			return p.normals(normals)
		}
		rainfall, err := svc.Rainfall(ctx, start, end)
		if err != nil {
			return err
		}
		return p.rainfall(rainfall)
	}
	return nil
}

type printer struct {
	out  io.Writer
	json bool
}

func (p printer) text(s string) error {
	if p.json {
		return p.encode(map[string]string{"status": "ok"})
	}
	_, err := io.WriteString(p.out, s)
	return err
}

func (p printer) encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) summary(s service.Summary) error {
	if p.json {
		return p.encode(s)
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	latest := "-"
	if s.Latest != nil {
		latest = s.Latest.String()
	}
	fmt.Fprintf(tw, "latest date\t%s\n", latest)
	fmt.Fprintf(tw, "stations\t%d\n", s.Stations)
	if s.MostActive != nil {
		fmt.Fprintf(tw, "most active\t%s (%d rows)\n", s.MostActive.StationID, s.MostActive.Count)
	}
	if s.Extremes != nil {
		fmt.Fprintf(tw, "extremes\tmin %.1f  avg %.1f  max %.1f\n", s.Extremes.Min, s.Extremes.Avg, s.Extremes.Max)
	}
	if pr := s.Precipitation; pr.Count > 0 {
		fmt.Fprintf(tw, "precipitation\t%s..%s  %d readings\n", pr.Start, pr.End, pr.Count)
		fmt.Fprintf(tw, "\tmean %.2f  std %s\n", *pr.Mean, optional(pr.Std))
		fmt.Fprintf(tw, "\tmin %.2f  25%% %.2f  50%% %.2f  75%% %.2f  max %.2f\n", *pr.Min, *pr.P25, *pr.Median, *pr.P75, *pr.Max)
	}
	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func (p printer) rangeStats(r types.RangeStats) error {
	if p.json {
		return p.encode(r)
	}
	if r.Count == 0 {
		_, err := fmt.Fprintf(p.out, "%s..%s  no data\n", r.Start, r.End)
		return err
	}
	_, err := fmt.Fprintf(p.out, "%s..%s  min %.1f  avg %.1f  max %.1f  (%d readings)\n",
		r.Start, r.End, *r.Min, *r.Avg, *r.Max, r.Count)
	return err
}

func (p printer) normals(normals []types.DailyNormal) error {
	if p.json {
		return p.encode(normals)
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "date\tmin\tavg\tmax")
	for _, n := range normals {
		if n.Stats == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\n", n.Date)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\n", n.Date, n.Stats.Min, n.Stats.Avg, n.Stats.Max)
	}
	return tw.Flush()
}

func (p printer) rainfall(rows []types.StationRainfall) error {
	if p.json {
		return p.encode(rows)
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "station\tname\ttotal\tlat\tlon\televation")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.4f\t%.4f\t%.1f\n", r.StationID, r.Name, r.TotalPrecipitation, r.Latitude, r.Longitude, r.Elevation)
	}
	return tw.Flush()
}
