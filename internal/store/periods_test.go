package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/bemfst/portal/internal/model"
)

func seedPeriod(t *testing.T, s *Store, name string, start int, active bool) *model.Period {
	t.Helper()
	p := &model.Period{Name: name, YearStart: start, YearEnd: start + 1, IsActive: active}
	if err := s.CreatePeriod(context.Background(), p); err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	return p
}

func activePeriods(t *testing.T, s *Store) []string {
	t.Helper()
	all, err := s.ListPeriods(context.Background())
	if err != nil {
		t.Fatalf("ListPeriods: %v", err)
	}
	var names []string
	for _, p := range all {
		if p.IsActive {
			names = append(names, p.Name)
		}
	}
	return names
}

func TestPeriodCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := seedPeriod(t, s, "Kabinet Harmoni", 2024, false)
	if p.ID == 0 {
		t.Fatal("expected ID to be populated")
	}

	got, err := s.GetPeriod(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPeriod: %v", err)
	}
	if got.Name != "Kabinet Harmoni" || got.YearStart != 2024 || got.YearEnd != 2025 || got.IsActive {
		t.Errorf("GetPeriod = %+v", got)
	}

	got.Description = model.StringPtr("Periode kepengurusan 2024/2025")
	if err := s.UpdatePeriod(ctx, got); err != nil {
		t.Fatalf("UpdatePeriod: %v", err)
	}
	got, _ = s.GetPeriod(ctx, p.ID)
	if got.Description == nil || *got.Description != "Periode kepengurusan 2024/2025" {
		t.Errorf("Description = %v", got.Description)
	}

	if err := s.DeletePeriod(ctx, p.ID); err != nil {
		t.Fatalf("DeletePeriod: %v", err)
	}
	if _, err := s.GetPeriod(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPeriod after delete: got %v, want ErrNotFound", err)
	}
	if err := s.DeletePeriod(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePeriod: got %v, want ErrNotFound", err)
	}
	if err := s.UpdatePeriod(ctx, &model.Period{ID: p.ID, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePeriod on deleted: got %v, want ErrNotFound", err)
	}
}

func TestListPeriodsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	seedPeriod(t, s, "2023", 2023, false)
	seedPeriod(t, s, "2025", 2025, false)
	seedPeriod(t, s, "2024", 2024, false)

	all, err := s.ListPeriods(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range all {
		names = append(names, p.Name)
	}
	if len(names) != 3 || names[0] != "2025" || names[1] != "2024" || names[2] != "2023" {
		t.Errorf("order = %v, want [2025 2024 2023]", names)
	}
}

func TestSingleActivePeriod(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := seedPeriod(t, s, "Kabinet Harmoni", 2024, true)
	seedPeriod(t, s, "Kabinet Loyalist Spectra", 2025, true)
	if got := activePeriods(t, s); len(got) != 1 || got[0] != "Kabinet Loyalist Spectra" {
		t.Fatalf("active after create = %v", got)
	}

	old.IsActive = true
	if err := s.UpdatePeriod(ctx, old); err != nil {
		t.Fatal(err)
	}
	if got := activePeriods(t, s); len(got) != 1 || got[0] != "Kabinet Harmoni" {
		t.Fatalf("active after update = %v", got)
	}

	// Saving the active period again keeps it active.
	if err := s.UpdatePeriod(ctx, old); err != nil {
		t.Fatal(err)
	}
	if got := activePeriods(t, s); len(got) != 1 || got[0] != "Kabinet Harmoni" {
		t.Errorf("active after resave = %v", got)
	}
}

func TestCreatePeriodRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := NewWithDB(sqlx.NewDb(db, "pgx"), DriverPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE periods SET is_active = \$1 WHERE is_active = \$2 AND id <> \$3`).
		WithArgs(false, true, int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)INSERT INTO periods.*RETURNING id`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	p := &model.Period{Name: "Kabinet Baru", YearStart: 2026, YearEnd: 2027, IsActive: true}
	if err := s.CreatePeriod(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
