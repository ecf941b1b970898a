package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bemfst/portal/internal/model"
)

const periodColumns = `id, name, year_start, year_end, is_active, description, created_at, updated_at`

// ListPeriods returns every period, most recent term first.
func (s *Store) ListPeriods(ctx context.Context) ([]model.Period, error) {
	periods := []model.Period{}
	q := `SELECT ` + periodColumns + ` FROM periods ORDER BY year_start DESC, id DESC`
	if err := s.db.SelectContext(ctx, &periods, q); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// GetPeriod returns a period by ID.
func (s *Store) GetPeriod(ctx context.Context, id int64) (*model.Period, error) {
	var p model.Period
	q := s.db.Rebind(`SELECT ` + periodColumns + ` FROM periods WHERE id = ?`)
	if err := s.db.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get period: %w", err)
	}
	return &p, nil
}

// CreatePeriod inserts p. An active period deactivates every other one in
// the same transaction.
func (s *Store) CreatePeriod(ctx context.Context, p *model.Period) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const q = `INSERT INTO periods
		(name, year_start, year_end, is_active, description, created_at, updated_at)
		VALUES
		(:name, :year_start, :year_end, :is_active, :description, :created_at, :updated_at)`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if p.IsActive {
			if err := deactivatePeriods(ctx, tx, 0); err != nil {
				return err
			}
		}
		id, err := s.insertReturningID(ctx, tx, q, p)
		if err != nil {
			return fmt.Errorf("insert period: %w", err)
		}
		p.ID = id
		return nil
	})
}

// UpdatePeriod writes every mutable column of p, deactivating the others
// when p is active.
func (s *Store) UpdatePeriod(ctx context.Context, p *model.Period) error {
	p.UpdatedAt = time.Now().UTC()

	const q = `UPDATE periods SET
		name = :name, year_start = :year_start, year_end = :year_end,
		is_active = :is_active, description = :description, updated_at = :updated_at
		WHERE id = :id`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if p.IsActive {
			if err := deactivatePeriods(ctx, tx, p.ID); err != nil {
				return err
			}
		}
		result, err := tx.NamedExecContext(ctx, q, p)
		if err != nil {
			return fmt.Errorf("update period: %w", err)
		}
		return expectRow(result, "update period")
	})
}

// DeletePeriod removes a period for good.
func (s *Store) DeletePeriod(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM periods WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	return expectRow(result, "delete period")
}

func deactivatePeriods(ctx context.Context, tx *sqlx.Tx, exceptID int64) error {
	q := tx.Rebind("UPDATE periods SET is_active = ? WHERE is_active = ? AND id <> ?")
	if _, err := tx.ExecContext(ctx, q, false, true, exceptID); err != nil {
		return fmt.Errorf("deactivate periods: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// expectRow maps a statement that touched no row to ErrNotFound.
func expectRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
