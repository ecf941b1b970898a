package store

import (
	"context"
	"errors"
	"testing"

	"github.com/bemfst/portal/internal/model"
)

func TestOrganizationSeeded(t *testing.T) {
	s := newTestStore(t)
	org, err := s.GetOrganization(context.Background())
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if org.Name != model.DefaultOrganizationName {
		t.Errorf("Name = %q, want %q", org.Name, model.DefaultOrganizationName)
	}
	if org.SocialMedia == nil || len(org.SocialMedia) != 0 {
		t.Errorf("SocialMedia = %v, want empty map", org.SocialMedia)
	}

	// Migrations run again on every start and must not add a second row.
	if err := s.migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM organizations"); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("organizations = %d, want 1", n)
	}
}

func TestUpdateOrganization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.GetOrganization(ctx)
	if err != nil {
		t.Fatal(err)
	}
	org.Description = "Badan Eksekutif Mahasiswa Fakultas Sains dan Teknologi"
	org.Email = "bem@fst.example.ac.id"
	org.SocialMedia = map[string]string{"instagram": "@bemfst", "youtube": "https://youtube.com/@bemfst"}
	if err := s.UpdateOrganization(ctx, org); err != nil {
		t.Fatalf("UpdateOrganization: %v", err)
	}

	got, err := s.GetOrganizationByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetOrganizationByID: %v", err)
	}
	if got.Email != "bem@fst.example.ac.id" || got.SocialMedia["instagram"] != "@bemfst" || len(got.SocialMedia) != 2 {
		t.Errorf("GetOrganizationByID = %+v", got)
	}

	if _, err := s.GetOrganizationByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
	if err := s.UpdateOrganization(ctx, &model.Organization{ID: 999, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: got %v, want ErrNotFound", err)
	}
}
