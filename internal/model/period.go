package model

import "time"

// Period is one management term of the student executive board, such as
// "Kabinet Loyalist Spectra 2025/2026". At most one period is active.
type Period struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	YearStart   int       `json:"year_start" db:"year_start"`
	YearEnd     int       `json:"year_end" db:"year_end"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
