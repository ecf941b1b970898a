package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bemfst/portal/internal/model"
)

const postColumns = `id, title, slug, excerpt, content, category, status, author, featured_image,
	meta_title, meta_description, published_at, created_at, updated_at, deleted_at`

// CreatePost inserts a new post. The ID, CreatedAt, and UpdatedAt fields on
// p are populated after a successful insert. A duplicate slug yields ErrConflict.
func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const q = `INSERT INTO posts
		(title, slug, excerpt, content, category, status, author, featured_image,
		 meta_title, meta_description, published_at, created_at, updated_at)
		VALUES
		(:title, :slug, :excerpt, :content, :category, :status, :author, :featured_image,
		 :meta_title, :meta_description, :published_at, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, s.db, q, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert post: %w", err)
	}
	p.ID = id
	return nil
}

// GetPost returns a live (not deleted) post by ID.
func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	return s.getPost(ctx, "id = ?", id)
}

// GetPostBySlug returns a live post by its unique slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return s.getPost(ctx, "slug = ?", slug)
}

// SlugTaken reports whether any post, deleted or not, already uses slug.
// Deleted posts keep their slug because the column is unique.
func (s *Store) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int
	q := s.db.Rebind("SELECT COUNT(*) FROM posts WHERE slug = ? AND id <> ?")
	if err := s.db.GetContext(ctx, &n, q, slug, exceptID); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

func (s *Store) getPost(ctx context.Context, where string, arg any) (*model.Post, error) {
	var p model.Post
	q := s.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE ` + where + ` AND deleted_at IS NULL`)
	if err := s.db.GetContext(ctx, &p, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// ListPosts returns a page of live posts newest-first, optionally filtered by status.
func (s *Store) ListPosts(ctx context.Context, offset, limit int, status string) ([]model.Post, error) {
	where, args := postFilter(status)
	page, pageArgs := s.pageClause(offset, limit)
	args = append(args, pageArgs...)
	q := s.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE ` + where + page)

	posts := []model.Post{}
	if err := s.db.SelectContext(ctx, &posts, q, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns the number of live posts, optionally filtered by status.
func (s *Store) CountPosts(ctx context.Context, status string) (int64, error) {
	where, args := postFilter(status)
	var n int64
	if err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM posts WHERE "+where), args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func postFilter(status string) (string, []any) {
	if status == "" {
		return "deleted_at IS NULL", nil
	}
	return "deleted_at IS NULL AND status = ?", []any{status}
}

// UpdatePost writes every mutable column of p. UpdatedAt is refreshed automatically.
func (s *Store) UpdatePost(ctx context.Context, p *model.Post) error {
	p.UpdatedAt = time.Now().UTC()

	const q = `UPDATE posts SET
		title = :title, slug = :slug, excerpt = :excerpt, content = :content,
		category = :category, status = :status, author = :author,
		featured_image = :featured_image, meta_title = :meta_title,
		meta_description = :meta_description, published_at = :published_at,
		updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	result, err := s.db.NamedExecContext(ctx, q, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeletePost marks a post as deleted.
func (s *Store) SoftDeletePost(ctx context.Context, id int64) error {
	q := s.db.Rebind("UPDATE posts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL")
	result, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
