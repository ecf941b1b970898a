package model

import "time"

// DefaultOrganizationName names the profile row created on first start.
const DefaultOrganizationName = "BEM FST"

// Organization is the public profile of the student executive board.
// SocialMedia maps a network name (instagram, twitter, youtube, facebook)
// to a handle or URL.
type Organization struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Address     string            `json:"address"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	SocialMedia map[string]string `json:"social_media"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
