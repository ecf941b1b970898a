package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bemfst/portal/internal/model"
)

const organizationColumns = `id, name, description, address, email, phone, social_media, created_at, updated_at`

// organizationRow maps 1:1 to the organizations table. Social links are a
// JSON object in a text column.
type organizationRow struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Address     string    `db:"address"`
	Email       string    `db:"email"`
	Phone       string    `db:"phone"`
	SocialMedia *string   `db:"social_media"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r organizationRow) toModel() *model.Organization {
	o := &model.Organization{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Address:     r.Address,
		Email:       r.Email,
		Phone:       r.Phone,
		SocialMedia: map[string]string{},
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.SocialMedia != nil && *r.SocialMedia != "" {
		var links map[string]string
		if err := json.Unmarshal([]byte(*r.SocialMedia), &links); err == nil && links != nil {
			o.SocialMedia = links
		}
	}
	return o
}

// GetOrganization returns the main profile, the row with the lowest ID.
func (s *Store) GetOrganization(ctx context.Context) (*model.Organization, error) {
	var q string
	if s.driver == DriverSQLServer {
		q = `SELECT TOP 1 ` + organizationColumns + ` FROM organizations ORDER BY id`
	} else {
		q = `SELECT ` + organizationColumns + ` FROM organizations ORDER BY id LIMIT 1`
	}
	return s.getOrganization(ctx, q)
}

// GetOrganizationByID returns a profile by ID.
func (s *Store) GetOrganizationByID(ctx context.Context, id int64) (*model.Organization, error) {
	return s.getOrganization(ctx, s.db.Rebind(`SELECT `+organizationColumns+` FROM organizations WHERE id = ?`), id)
}

func (s *Store) getOrganization(ctx context.Context, q string, args ...any) (*model.Organization, error) {
	var row organizationRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return row.toModel(), nil
}

// UpdateOrganization writes every mutable column of o. UpdatedAt is refreshed
// automatically.
func (s *Store) UpdateOrganization(ctx context.Context, o *model.Organization) error {
	o.UpdatedAt = time.Now().UTC()

	row := organizationRow{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Address:     o.Address,
		Email:       o.Email,
		Phone:       o.Phone,
		UpdatedAt:   o.UpdatedAt,
	}
	if len(o.SocialMedia) > 0 {
		b, err := json.Marshal(o.SocialMedia)
		if err != nil {
			return fmt.Errorf("encode social media: %w", err)
		}
		links := string(b)
		row.SocialMedia = &links
	}

	const q = `UPDATE organizations SET
		name = :name, description = :description, address = :address,
		email = :email, phone = :phone, social_media = :social_media,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return expectRow(result, "update organization")
}
