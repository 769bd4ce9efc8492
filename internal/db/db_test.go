package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"climate-server/internal/config"
)

// createStore writes a file-backed database with the declared schema and
// returns its path.
func createStore(t *testing.T, ddl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			t.Fatalf("close fixture: %v", err)
		}
	}()
	if _, err := conn.Exec(ddl); err != nil {
		t.Fatalf("exec ddl: %v", err)
	}
	return path
}

func TestBuildDSN(t *testing.T) {
	path := createStore(t, Schema)

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Config{SQLiteDriver: DriverCGO, SQLiteDSN: "file::memory:?cache=shared", SQLitePath: path},
			want: "file::memory:?cache=shared",
		},
		{
			name: "cgo driver params",
			cfg:  config.Config{SQLiteDriver: DriverCGO, SQLitePath: path},
			want: "file:" + path + "?mode=ro&_query_only=true&_busy_timeout=5000",
		},
		{
			name: "pure driver params",
			cfg:  config.Config{SQLiteDriver: DriverPure, SQLitePath: path},
			want: "file:" + path + "?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "file uri with query is extended",
			cfg:  config.Config{SQLiteDriver: DriverCGO, SQLitePath: "file:" + path + "?cache=private"},
			want: "file:" + path + "?cache=private&mode=ro&_query_only=true&_busy_timeout=5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			if err != nil {
				t.Fatalf("buildDSN() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("buildDSN() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestBuildDSN_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := buildDSN(config.Config{SQLiteDriver: DriverCGO, SQLitePath: filepath.Join(t.TempDir(), "nope.sqlite")})
		if err == nil {
			t.Fatal("buildDSN() error = nil for missing file")
		}
	})
	t.Run("empty path", func(t *testing.T) {
		if _, err := buildDSN(config.Config{SQLiteDriver: DriverCGO}); err == nil {
			t.Fatal("buildDSN() error = nil for empty path")
		}
	})
	t.Run("unknown driver", func(t *testing.T) {
		path := createStore(t, Schema)
		if _, err := buildDSN(config.Config{SQLiteDriver: "postgres", SQLitePath: path}); err == nil {
			t.Fatal("buildDSN() error = nil for unknown driver")
		}
	})
}

func TestOpen_ReadOnly(t *testing.T) {
	for _, driverName := range []string{DriverCGO, DriverPure} {
		for _, logSQL := range []bool{false, true} {
			name := driverName
			if logSQL {
				name += "/logged"
			}
			t.Run(name, func(t *testing.T) {
				path := createStore(t, Schema)
				conn, err := Open(config.Config{
					SQLiteDriver:       driverName,
					SQLitePath:         path,
					SQLiteMaxOpenConns: 2,
					SQLiteMaxIdleConns: 2,
					LogSQL:             logSQL,
				})
				if err != nil {
					t.Fatalf("Open() error = %v", err)
				}
				defer func() {
					if err := Close(conn); err != nil {
						t.Fatalf("Close() error = %v", err)
					}
				}()

				if err := Ping(context.Background(), conn); err != nil {
					t.Fatalf("Ping() error = %v", err)
				}
				if _, err := conn.Exec(`INSERT INTO station (station, name) VALUES ('X', 'x')`); err == nil {
					t.Fatal("insert on read-only store succeeded; want error")
				}
			})
		}
	}
}

func TestClose_Nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil) = %v; want nil", err)
	}
}

func TestVerifySchema(t *testing.T) {
	t.Run("declared schema passes", func(t *testing.T) {
		conn := openRW(t, createStore(t, Schema))
		if err := VerifySchema(context.Background(), conn); err != nil {
			t.Fatalf("VerifySchema() = %v; want nil", err)
		}
	})

	t.Run("extra columns are allowed", func(t *testing.T) {
		ddl := Schema + `ALTER TABLE station ADD COLUMN country TEXT;`
		conn := openRW(t, createStore(t, ddl))
		if err := VerifySchema(context.Background(), conn); err != nil {
			t.Fatalf("VerifySchema() = %v; want nil", err)
		}
	})

	t.Run("missing table and wrong column reported", func(t *testing.T) {
		ddl := `CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs TEXT);`
		conn := openRW(t, createStore(t, ddl))
		err := VerifySchema(context.Background(), conn)
		if !IsSchemaError(err) {
			t.Fatalf("VerifySchema() = %v; want *SchemaError", err)
		}
		msg := err.Error()
		for _, want := range []string{"table station is missing", "measurement.tobs"} {
			if !strings.Contains(msg, want) {
				t.Errorf("error %q does not mention %q", msg, want)
			}
		}
	})

	t.Run("missing column reported", func(t *testing.T) {
		ddl := strings.Replace(Schema, "elevation FLOAT", "height FLOAT", 1)
		conn := openRW(t, createStore(t, ddl))
		err := VerifySchema(context.Background(), conn)
		if err == nil || !strings.Contains(err.Error(), "station.elevation is missing") {
			t.Fatalf("VerifySchema() = %v; want missing elevation", err)
		}
	})
}

func openRW(t *testing.T, path string) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
