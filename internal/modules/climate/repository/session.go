package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"climate-server/internal/metrics"
)

// Reader hands out request-scoped read sessions.
type Reader interface {
	// Read runs fn against a repository bound to one read-only transaction.
	// The transaction is always released when fn returns, whatever the outcome.
	Read(ctx context.Context, fn func(ClimateRepository) error) error
}

type txReader struct {
	db *sql.DB
}

func NewReader(db *sql.DB) Reader {
	return &txReader{db: db}
}

func (r *txReader) Read(ctx context.Context, fn func(ClimateRepository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		metrics.DBReadSessions.WithLabelValues("begin_error").Inc()
		return fmt.Errorf("begin read session: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("release read session", "error", rbErr)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.DBReadSessions.WithLabelValues(outcome).Inc()
	}()

	return fn(&repositoryImpl{q: tx})
}
