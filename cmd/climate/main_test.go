package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"climate-server/internal/config"
	"climate-server/internal/db"
)

func fixtureConfig(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	rw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer rw.Close()
	for _, stmt := range []string{
		db.Schema,
		`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES ('A', 'Alpha', 21.1, -157.1, 3.0)`,
		`INSERT INTO measurement (station, date, prcp, tobs) VALUES
			('A', '2016-08-23', 0.2, 77),
			('A', '2017-08-22', 0.1, 79),
			('A', '2017-08-23', 0.3, 81)`,
	} {
		if _, err := rw.Exec(stmt); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	return config.Config{
		SQLiteDriver:       db.DriverCGO,
		SQLitePath:         path,
		SQLiteMaxOpenConns: 1,
		SQLiteMaxIdleConns: 1,
		MaxTripDays:        31,
	}
}

func runCLI(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), cfg, args, &out)
	return out.String(), err
}

func TestRun_Commands(t *testing.T) {
	cfg := fixtureConfig(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{"verify", []string{"verify"}, []string{"schema ok"}},
		{"summary", []string{"summary"}, []string{"2017-08-23", "A (3 rows)", "max 81.0", "2016-08-23..2017-08-23  3 readings", "mean 0.20  std 0.10", "50% 0.20"}},
		{"temps open end", []string{"temps", "-start", "2017-08-22"}, []string{"2017-08-22..2017-08-23", "min 79.0", "(2 readings)"}},
		{"temps no data", []string{"temps", "-start", "2018-01-01", "-end", "2018-01-02"}, []string{"no data"}},
		{"normals", []string{"normals", "-start", "2018-08-23", "-end", "2018-08-24"}, []string{"2018-08-23", "77.0", "2018-08-24  -"}},
		{"rainfall", []string{"rainfall", "-start", "2017-01-01", "-end", "2017-12-31"}, []string{"Alpha", "0.40"}},
		{"json", []string{"temps", "-start", "2017-08-22", "-json"}, []string{`"count": 2`, `"start": "2017-08-22"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, cfg, tt.args...)
			if err != nil {
				t.Fatalf("run(%v) err = %v", tt.args, err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRun_LogsStayOffOutput(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.LogLevel = slog.LevelDebug

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(newLogger(cfg, &logs))
	t.Cleanup(func() { slog.SetDefault(prev) })

	out, err := runCLI(t, cfg, "summary", "-json")
	if err != nil {
		t.Fatalf("run err = %v", err)
	}
	var sum map[string]any
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if sum["stations"] != float64(1) {
		t.Errorf("stations = %v; want 1", sum["stations"])
	}
	if logs.Len() == 0 {
		t.Error("debug logs were not written to the log writer")
	}
}

func TestRun_Errors(t *testing.T) {
	cfg := fixtureConfig(t)

	if _, err := runCLI(t, cfg); !errors.Is(err, errUsage) {
		t.Errorf("no args err = %v; want usage", err)
	}
	if _, err := runCLI(t, cfg, "plot"); !errors.Is(err, errUsage) {
		t.Errorf("unknown command err = %v; want usage", err)
	}
	if _, err := runCLI(t, cfg, "temps", "-start", "yesterday"); err == nil {
		t.Error("bad -start err = nil; want error")
	}
	if _, err := runCLI(t, cfg, "normals", "-start", "2018-01-01", "-end", "2018-03-01"); err == nil || !strings.Contains(err.Error(), "trip too long") {
		t.Errorf("long trip err = %v; want trip too long", err)
	}
	if _, err := runCLI(t, cfg, "rainfall", "-start", "2017-01-01"); err == nil {
		t.Error("missing -end err = nil; want error")
	}
}
