package model

import "time"

// Known activity actions. The set is open: consumers must display unknown
// actions generically.
const (
	ActionLogin         = "auth.login"
	ActionLoginFailed   = "auth.login_failed"
	ActionLogout        = "auth.logout"
	ActionPostCreated   = "post.created"
	ActionPostUpdated   = "post.updated"
	ActionPostPublished = "post.published"
	ActionPostDeleted   = "post.deleted"
	ActionLogsPurged    = "activity.purged"

	ActionPeriodCreated       = "period.created"
	ActionPeriodUpdated       = "period.updated"
	ActionPeriodDeleted       = "period.deleted"
	ActionOrganizationUpdated = "organization.updated"
)

// DefaultActor is stored when an entry is recorded without an actor.
const DefaultActor = "admin"

// ActivityLog is an immutable audit record of an administrative action.
type ActivityLog struct {
	ID          int64          `json:"id" db:"id"`
	Action      string         `json:"action" db:"action"`
	EntityType  *string        `json:"entity_type" db:"entity_type"`
	EntityID    *int64         `json:"entity_id" db:"entity_id"`
	EntityTitle *string        `json:"entity_title" db:"entity_title"`
	Actor       string         `json:"actor" db:"actor"`
	IPAddress   *string        `json:"ip_address" db:"ip_address"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// StringPtr returns nil for an empty string so that optional columns are
// stored as NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64Ptr returns nil for zero.
func Int64Ptr(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
