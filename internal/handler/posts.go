package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/store"
)

const (
	defaultPostPageSize = 6
	maxPostPageSize     = 100
	minTitleLen         = 5
	maxTitleLen         = 255
	minContentLen       = 10
	maxAuthorLen        = 255
)

// PostStore is the persistence the post handler needs.
type PostStore interface {
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error)
	ListPosts(ctx context.Context, offset, limit int, status string) ([]model.Post, error)
	CountPosts(ctx context.Context, status string) (int64, error)
	UpdatePost(ctx context.Context, p *model.Post) error
	SoftDeletePost(ctx context.Context, id int64) error
}

// ActivityRecorder receives audit entries. It must not block.
type ActivityRecorder interface {
	Record(ctx context.Context, entry model.ActivityLog)
}

// PostHandler serves public reads and admin writes of news and events.
type PostHandler struct {
	store          PostStore
	recorder       ActivityRecorder
	trustForwarded bool
	logger         *slog.Logger
}

func NewPostHandler(s PostStore, recorder ActivityRecorder, trustForwarded bool, logger *slog.Logger) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{store: s, recorder: recorder, trustForwarded: trustForwarded, logger: logger}
}

// List returns live posts newest first.
// GET /api/v1/posts?page=1&limit=6&status=published
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		writeError(w, http.StatusBadRequest, "page must be at least 1")
		return
	}
	limit := clampInt(queryInt(r, "limit", defaultPostPageSize), 1, maxPostPageSize)
	status := queryString(r, "status")
	if status != "" && !model.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "status must be draft or published")
		return
	}

	posts, err := h.store.ListPosts(r.Context(), (page-1)*limit, limit, status)
	if err != nil {
		h.logger.Error("list posts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	total, err := h.store.CountPosts(r.Context(), status)
	if err != nil {
		h.logger.Error("count posts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	writeOK(w, http.StatusOK, "", posts, model.NewPageMeta(total, page, limit))
}

// Get returns one live post by ID.
// GET /api/v1/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load post")
		return
	}
	writeOK(w, http.StatusOK, "", p, nil)
}

// GetBySlug returns one live post by slug.
// GET /api/v1/posts/slug/{slug}
func (h *PostHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.storeError(w, err, "Failed to load post")
		return
	}
	writeOK(w, http.StatusOK, "", p, nil)
}

type postRequest struct {
	Title           *string    `json:"title"`
	Content         *string    `json:"content"`
	Excerpt         *string    `json:"excerpt"`
	Category        *string    `json:"category"`
	Status          *string    `json:"status"`
	Author          *string    `json:"author"`
	FeaturedImage   *string    `json:"featured_image"`
	PublishedAt     *time.Time `json:"published_at"`
	MetaTitle       *string    `json:"meta_title"`
	MetaDescription *string    `json:"meta_description"`
}

// apply copies the set fields of req onto p, trimming text.
func (req *postRequest) apply(p *model.Post) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Title, req.Title)
	set(&p.Content, req.Content)
	set(&p.Excerpt, req.Excerpt)
	set(&p.Category, req.Category)
	set(&p.Status, req.Status)
	set(&p.Author, req.Author)
	set(&p.MetaTitle, req.MetaTitle)
	set(&p.MetaDescription, req.MetaDescription)
	if req.FeaturedImage != nil {
		p.FeaturedImage = model.StringPtr(strings.TrimSpace(*req.FeaturedImage))
	}
	if req.PublishedAt != nil {
		t := req.PublishedAt.UTC()
		p.PublishedAt = &t
	}
}

func validatePost(p *model.Post) string {
	switch n := utf8.RuneCountInString(p.Title); {
	case n < minTitleLen:
		return "title must be at least 5 characters"
	case n > maxTitleLen:
		return "title must be at most 255 characters"
	}
	if utf8.RuneCountInString(p.Content) < minContentLen {
		return "content must be at least 10 characters"
	}
	if !model.ValidCategory(p.Category) {
		return "category must be news or event"
	}
	if !model.ValidStatus(p.Status) {
		return "status must be draft or published"
	}
	if utf8.RuneCountInString(p.Author) > maxAuthorLen {
		return "author must be at most 255 characters"
	}
	if Slugify(p.Title) == "" {
		return "title must contain letters or digits"
	}
	return ""
}

// Create adds a post and records post.created.
// POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Title == nil || req.Content == nil {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	p := &model.Post{
		Category: model.CategoryNews,
		Status:   model.StatusDraft,
		Author:   model.DefaultAuthor,
	}
	req.apply(p)
	if p.Author == "" {
		p.Author = model.DefaultAuthor
	}
	if p.MetaTitle == "" {
		p.MetaTitle = p.Title
	}
	if msg := validatePost(p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	p.Slug = Slugify(p.Title)
	if !h.slugAvailable(w, r.Context(), p.Slug, 0) {
		return
	}
	stampPublished(p)

	if err := h.store.CreatePost(r.Context(), p); err != nil {
		h.storeError(w, err, "Failed to create post")
		return
	}

	h.record(r, model.ActionPostCreated, p, map[string]any{"category": p.Category, "status": p.Status})
	writeOK(w, http.StatusCreated, "Post created", p, nil)
}

// Update changes the supplied fields of a post. A new title regenerates the
// slug. Setting status to published records post.published, anything else
// post.updated.
// PATCH /api/v1/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load post")
		return
	}
	oldTitle := p.Title
	req.apply(p)
	if p.Author == "" {
		p.Author = model.DefaultAuthor
	}
	if msg := validatePost(p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if p.Title != oldTitle {
		p.Slug = Slugify(p.Title)
		if !h.slugAvailable(w, r.Context(), p.Slug, p.ID) {
			return
		}
	}
	stampPublished(p)

	if err := h.store.UpdatePost(r.Context(), p); err != nil {
		h.storeError(w, err, "Failed to update post")
		return
	}

	action := model.ActionPostUpdated
	if req.Status != nil && strings.TrimSpace(*req.Status) == model.StatusPublished {
		action = model.ActionPostPublished
	}
	h.record(r, action, p, map[string]any{"category": p.Category, "status": p.Status})
	writeOK(w, http.StatusOK, "Post updated", p, nil)
}

// Delete soft-deletes a post and records post.deleted.
// DELETE /api/v1/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := entityID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to load post")
		return
	}
	if err := h.store.SoftDeletePost(r.Context(), id); err != nil {
		h.storeError(w, err, "Failed to delete post")
		return
	}

	h.record(r, model.ActionPostDeleted, p, map[string]any{"id": id})
	writeOK(w, http.StatusOK, "Post deleted", nil, nil)
}

func (h *PostHandler) record(r *http.Request, action string, p *model.Post, meta map[string]any) {
	if h.recorder == nil {
		return
	}
	h.recorder.Record(r.Context(), auditEntry(r, h.trustForwarded, action, "post", p.ID, p.Title, meta))
}

// slugAvailable writes 409 when another post, deleted or not, owns slug.
func (h *PostHandler) slugAvailable(w http.ResponseWriter, ctx context.Context, slug string, exceptID int64) bool {
	taken, err := h.store.SlugTaken(ctx, slug, exceptID)
	if err != nil {
		h.storeError(w, err, "Failed to check slug")
		return false
	}
	if taken {
		h.storeError(w, store.ErrConflict, "")
		return false
	}
	return true
}

func (h *PostHandler) storeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "A post with this title already exists")
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// stampPublished sets PublishedAt the first time a post is published.
func stampPublished(p *model.Post) {
	if p.Status == model.StatusPublished && p.PublishedAt == nil {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
}

var (
	slugStrip  = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a title into a URL slug: lower-cased, punctuation removed,
// whitespace runs replaced by single dashes.
//
//	"Open Recruitment 2026!" -> "open-recruitment-2026"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
