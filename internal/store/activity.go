package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bemfst/portal/internal/model"
)

const activityColumns = `id, action, entity_type, entity_id, entity_title, actor, ip_address, metadata, created_at`

// activityRow maps 1:1 to the activity_logs table. Metadata is stored as a
// JSON document in a text column.
type activityRow struct {
	ID          int64     `db:"id"`
	Action      string    `db:"action"`
	EntityType  *string   `db:"entity_type"`
	EntityID    *int64    `db:"entity_id"`
	EntityTitle *string   `db:"entity_title"`
	Actor       string    `db:"actor"`
	IPAddress   *string   `db:"ip_address"`
	Metadata    *string   `db:"metadata"`
	CreatedAt   time.Time `db:"created_at"`
}

func activityRowFromModel(e *model.ActivityLog) (activityRow, error) {
	row := activityRow{
		ID:          e.ID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		EntityTitle: e.EntityTitle,
		Actor:       e.Actor,
		IPAddress:   e.IPAddress,
		CreatedAt:   e.CreatedAt,
	}
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return activityRow{}, fmt.Errorf("encode metadata: %w", err)
		}
		s := string(b)
		row.Metadata = &s
	}
	return row, nil
}

func (r activityRow) toModel() model.ActivityLog {
	e := model.ActivityLog{
		ID:          r.ID,
		Action:      r.Action,
		EntityType:  r.EntityType,
		EntityID:    r.EntityID,
		EntityTitle: r.EntityTitle,
		Actor:       r.Actor,
		IPAddress:   r.IPAddress,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.Metadata != nil && *r.Metadata != "" {
		// A corrupt document is surfaced as no metadata rather than failing the listing.
		var m map[string]any
		if err := json.Unmarshal([]byte(*r.Metadata), &m); err == nil {
			e.Metadata = m
		}
	}
	return e
}

// InsertActivity appends an entry to the activity log. The ID field is
// populated after a successful insert and CreatedAt defaults to now.
func (s *Store) InsertActivity(ctx context.Context, e *model.ActivityLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Actor == "" {
		e.Actor = model.DefaultActor
	}
	row, err := activityRowFromModel(e)
	if err != nil {
		return err
	}

	const q = `INSERT INTO activity_logs
		(action, entity_type, entity_id, entity_title, actor, ip_address, metadata, created_at)
		VALUES
		(:action, :entity_type, :entity_id, :entity_title, :actor, :ip_address, :metadata, :created_at)`

	id, err := s.insertReturningID(ctx, s.db, q, row)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	e.ID = id
	return nil
}

// ListActivities returns a page of entries ordered newest-first.
func (s *Store) ListActivities(ctx context.Context, offset, limit int) ([]model.ActivityLog, error) {
	page, args := s.pageClause(offset, limit)
	q := s.db.Rebind(`SELECT ` + activityColumns + ` FROM activity_logs` + page)

	var rows []activityRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	entries := make([]model.ActivityLog, len(rows))
	for i, r := range rows {
		entries[i] = r.toModel()
	}
	return entries, nil
}

// CountActivities returns the exact number of stored entries.
func (s *Store) CountActivities(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM activity_logs"); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}

// DeleteActivitiesBefore removes every entry created strictly before cutoff
// and returns the number of rows removed.
func (s *Store) DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q := s.db.Rebind("DELETE FROM activity_logs WHERE created_at < ?")
	result, err := s.db.ExecContext(ctx, q, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete activities: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete activities rows affected: %w", err)
	}
	return n, nil
}

// insertReturningID runs a named INSERT on ext, the database or an open
// transaction, and returns the generated key. PostgreSQL and SQL Server have
// no LastInsertId, so the statement gets a RETURNING or OUTPUT clause instead.
func (s *Store) insertReturningID(ctx context.Context, ext sqlx.ExtContext, q string, arg any) (int64, error) {
	switch s.driver {
	case DriverPostgres:
		return queryID(ctx, ext, q+" RETURNING id", arg)
	case DriverSQLServer:
		return queryID(ctx, ext, strings.Replace(q, "VALUES", "OUTPUT INSERTED.id VALUES", 1), arg)
	}

	result, err := sqlx.NamedExecContext(ctx, ext, q, arg)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func queryID(ctx context.Context, ext sqlx.ExtContext, q string, arg any) (int64, error) {
	rows, err := sqlx.NamedQueryContext(ctx, ext, q, arg)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, rows.Err()
}
