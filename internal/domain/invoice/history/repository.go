// Package history records the outcome of every extraction run.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Status of a finished run
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
)

// Run is one processed upload
type Run struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"file_name"`
	Status       Status    `json:"status"`
	SummaryRows  int       `json:"summary_rows"`
	ChargeRows   int       `json:"charge_rows"`
	DroppedLines int       `json:"dropped_lines"`
	OwnerMisses  int       `json:"owner_misses"`
	LedgerMisses int       `json:"ledger_misses"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DBTX is the subset of pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository handles database operations for extraction runs
type Repository struct {
	db DBTX
}

// NewRepository creates a new history repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Record stores a finished run
func (r *Repository) Record(ctx context.Context, run Run) error {
	query := `
		INSERT INTO extraction_runs (
			id, file_name, status, summary_rows, charge_rows, dropped_lines,
			owner_misses, ledger_misses, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		run.ID,
		run.FileName,
		string(run.Status),
		run.SummaryRows,
		run.ChargeRows,
		run.DroppedLines,
		run.OwnerMisses,
		run.LedgerMisses,
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first
func (r *Repository) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT id, file_name, status, summary_rows, charge_rows, dropped_lines,
			owner_misses, ledger_misses, error_message, created_at
		FROM extraction_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var status string
		if err := rows.Scan(
			&run.ID,
			&run.FileName,
			&status,
			&run.SummaryRows,
			&run.ChargeRows,
			&run.DroppedLines,
			&run.OwnerMisses,
			&run.LedgerMisses,
			&run.ErrorMessage,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Status = Status(status)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DeleteOlderThan removes runs created before cutoff
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM extraction_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
