package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Schema is the DDL of the two relations the server reads. It is used to
// build fixtures; the server itself only verifies it.
//
//go:embed sql/schema.sql
var Schema string

// Column is one declared column of a table.
type Column struct {
	Name string
	// Affinity is the declared SQLite type, compared case-insensitively.
	Affinity string
}

// Table is a relation the query layer depends on.
type Table struct {
	Name    string
	Columns []Column
}

// Tables declares the observation store layout ahead of time instead of
// discovering it at startup.
var Tables = []Table{
	{
		Name: "measurement",
		Columns: []Column{
			{Name: "id", Affinity: "INTEGER"},
			{Name: "station", Affinity: "TEXT"},
			{Name: "date", Affinity: "TEXT"},
			{Name: "prcp", Affinity: "FLOAT"},
			{Name: "tobs", Affinity: "FLOAT"},
		},
	},
	{
		Name: "station",
		Columns: []Column{
			{Name: "id", Affinity: "INTEGER"},
			{Name: "station", Affinity: "TEXT"},
			{Name: "name", Affinity: "TEXT"},
			{Name: "latitude", Affinity: "FLOAT"},
			{Name: "longitude", Affinity: "FLOAT"},
			{Name: "elevation", Affinity: "FLOAT"},
		},
	},
}

// SchemaError lists every mismatch between Tables and the database.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "schema mismatch: " + strings.Join(e.Problems, "; ")
}

// VerifySchema checks that every declared table and column exists with the
// declared type. Extra columns are allowed. Returns *SchemaError on mismatch.
func VerifySchema(ctx context.Context, db *sql.DB) error {
	var problems []string
	for _, table := range Tables {
		got, err := tableColumns(ctx, db, table.Name)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", table.Name, err)
		}
		if len(got) == 0 {
			problems = append(problems, fmt.Sprintf("table %s is missing", table.Name))
			continue
		}
		for _, col := range table.Columns {
			typ, ok := got[col.Name]
			if !ok {
				problems = append(problems, fmt.Sprintf("column %s.%s is missing", table.Name, col.Name))
				continue
			}
			if !strings.EqualFold(typ, col.Affinity) {
				problems = append(problems, fmt.Sprintf("column %s.%s has type %q, want %q", table.Name, col.Name, typ, col.Affinity))
			}
		}
	}
	if len(problems) > 0 {
		return &SchemaError{Problems: problems}
	}
	return nil
}

// IsSchemaError reports whether err is (or wraps) a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close table info rows", "table", table, "error", err)
		}
	}()
	out := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		out[name] = typ
	}
	return out, rows.Err()
}
