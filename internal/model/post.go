package model

import "time"

// Post categories.
const (
	CategoryNews  = "news"
	CategoryEvent = "event"
)

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// DefaultAuthor is used when a post is created without an author.
const DefaultAuthor = "Admin BEM"

// Post is a news item or event announcement shown on the public site.
// Deleted posts are kept with DeletedAt set and hidden from every read.
type Post struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Slug            string     `json:"slug" db:"slug"`
	Excerpt         string     `json:"excerpt" db:"excerpt"`
	Content         string     `json:"content" db:"content"`
	Category        string     `json:"category" db:"category"`
	Status          string     `json:"status" db:"status"`
	Author          string     `json:"author" db:"author"`
	FeaturedImage   *string    `json:"featured_image" db:"featured_image"`
	MetaTitle       string     `json:"meta_title" db:"meta_title"`
	MetaDescription string     `json:"meta_description" db:"meta_description"`
	PublishedAt     *time.Time `json:"published_at" db:"published_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"-" db:"deleted_at"`
}

// ValidCategory reports whether c is a known post category.
func ValidCategory(c string) bool {
	return c == CategoryNews || c == CategoryEvent
}

// ValidStatus reports whether s is a known post status.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}
