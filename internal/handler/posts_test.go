package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/bemfst/portal/internal/model"
)

func createPost(t *testing.T, env *testEnv, tok string, body map[string]any) model.Post {
	t.Helper()
	rr := env.do(t, "POST", "/api/v1/posts", toJSON(t, body), tok)
	assertStatus(t, rr, http.StatusCreated)
	var resp envelope[model.Post]
	decodeJSON(t, rr, &resp)
	return resp.Data
}

func TestCreatePostDefaults(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	p := createPost(t, env, tok, map[string]any{
		"title":   "Open Recruitment 2026!",
		"content": "Pendaftaran staf BEM dibuka.",
	})

	if p.ID == 0 {
		t.Error("expected id")
	}
	if p.Slug != "open-recruitment-2026" {
		t.Errorf("slug = %q", p.Slug)
	}
	if p.Category != model.CategoryNews || p.Status != model.StatusDraft {
		t.Errorf("category/status = %q/%q", p.Category, p.Status)
	}
	if p.Author != model.DefaultAuthor || p.MetaTitle != p.Title {
		t.Errorf("author/meta_title = %q/%q", p.Author, p.MetaTitle)
	}
	if p.PublishedAt != nil {
		t.Error("draft must not have published_at")
	}

	entries := env.activities(t)
	var created *model.ActivityLog
	for i := range entries {
		if entries[i].Action == model.ActionPostCreated {
			created = &entries[i]
		}
	}
	if created == nil {
		t.Fatal("expected post.created entry")
	}
	if created.EntityID == nil || *created.EntityID != p.ID {
		t.Errorf("entity_id = %v, want %d", created.EntityID, p.ID)
	}
	if created.EntityTitle == nil || *created.EntityTitle != p.Title {
		t.Errorf("entity_title = %v", created.EntityTitle)
	}
	if created.Actor != testUsername {
		t.Errorf("actor = %q", created.Actor)
	}
	if created.Metadata["category"] != model.CategoryNews {
		t.Errorf("metadata = %v", created.Metadata)
	}
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing content", map[string]any{"title": "Valid title"}},
		{"short title", map[string]any{"title": "Hi", "content": "long enough content"}},
		{"long title", map[string]any{"title": strings.Repeat("x", 256), "content": "long enough content"}},
		{"short content", map[string]any{"title": "Valid title", "content": "short"}},
		{"bad category", map[string]any{"title": "Valid title", "content": "long enough content", "category": "blog"}},
		{"bad status", map[string]any{"title": "Valid title", "content": "long enough content", "status": "archived"}},
		{"punctuation title", map[string]any{"title": "!!!!!!", "content": "long enough content"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/posts", toJSON(t, tt.body), tok)
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestCreatePostDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	body := map[string]any{"title": "Rapat Kerja BEM", "content": "Agenda rapat kerja tahunan."}
	createPost(t, env, tok, body)

	rr := env.do(t, "POST", "/api/v1/posts", toJSON(t, body), tok)
	assertStatus(t, rr, http.StatusConflict)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/v1/posts",
		toJSON(t, map[string]any{"title": "Valid title", "content": "long enough content"}), "")
	assertStatus(t, rr, http.StatusUnauthorized)

	for _, e := range env.activities(t) {
		if e.Action == model.ActionPostCreated {
			t.Fatal("unauthenticated create must not be recorded")
		}
	}
}

func TestUpdatePostPublish(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)
	p := createPost(t, env, tok, map[string]any{"title": "Seminar Nasional", "content": "Seminar tentang teknologi."})

	rr := env.do(t, "PATCH", fmt.Sprintf("/api/v1/posts/%d", p.ID),
		toJSON(t, map[string]any{"status": "published"}), tok)
	assertStatus(t, rr, http.StatusOK)
	var resp envelope[model.Post]
	decodeJSON(t, rr, &resp)
	if resp.Data.Status != model.StatusPublished || resp.Data.PublishedAt == nil {
		t.Errorf("post = %+v, want published with published_at", resp.Data)
	}
	if resp.Data.Slug != p.Slug {
		t.Errorf("slug changed to %q without a title change", resp.Data.Slug)
	}

	rr = env.do(t, "PATCH", fmt.Sprintf("/api/v1/posts/%d", p.ID),
		toJSON(t, map[string]any{"title": "Seminar Nasional 2026"}), tok)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &resp)
	if resp.Data.Slug != "seminar-nasional-2026" {
		t.Errorf("slug = %q", resp.Data.Slug)
	}

	var actions []string
	for _, e := range env.activities(t) {
		actions = append(actions, e.Action)
	}
	joined := strings.Join(actions, ",")
	if !strings.Contains(joined, model.ActionPostPublished) || !strings.Contains(joined, model.ActionPostUpdated) {
		t.Errorf("actions = %v, want both publish and update", actions)
	}
}

func TestUpdatePostTitleConflict(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)
	createPost(t, env, tok, map[string]any{"title": "Pemilu Raya", "content": "Pemilihan ketua BEM."})
	p := createPost(t, env, tok, map[string]any{"title": "Dies Natalis", "content": "Perayaan ulang tahun."})

	rr := env.do(t, "PATCH", fmt.Sprintf("/api/v1/posts/%d", p.ID),
		toJSON(t, map[string]any{"title": "Pemilu Raya"}), tok)
	assertStatus(t, rr, http.StatusConflict)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)
	p := createPost(t, env, tok, map[string]any{
		"title": "Bakti Sosial", "content": "Kegiatan bakti sosial.", "status": "published", "category": "event",
	})

	rr := env.do(t, "DELETE", fmt.Sprintf("/api/v1/posts/%d", p.ID), nil, tok)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", fmt.Sprintf("/api/v1/posts/%d", p.ID), nil, "")
	assertStatus(t, rr, http.StatusNotFound)
	rr = env.do(t, "GET", "/api/v1/posts/slug/"+p.Slug, nil, "")
	assertStatus(t, rr, http.StatusNotFound)
	rr = env.do(t, "DELETE", fmt.Sprintf("/api/v1/posts/%d", p.ID), nil, tok)
	assertStatus(t, rr, http.StatusNotFound)

	var deleted int
	for _, e := range env.activities(t) {
		if e.Action == model.ActionPostDeleted {
			deleted++
			if e.EntityTitle == nil || *e.EntityTitle != "Bakti Sosial" {
				t.Errorf("entity_title = %v", e.EntityTitle)
			}
		}
	}
	if deleted != 1 {
		t.Errorf("got %d post.deleted entries, want 1", deleted)
	}
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)
	for i := range 8 {
		status := model.StatusDraft
		if i%2 == 0 {
			status = model.StatusPublished
		}
		createPost(t, env, tok, map[string]any{
			"title":   fmt.Sprintf("Kabar kampus %d", i),
			"content": "Isi berita kampus.",
			"status":  status,
		})
	}

	rr := env.do(t, "GET", "/api/v1/posts", nil, "")
	assertStatus(t, rr, http.StatusOK)
	var resp envelope[[]model.Post]
	decodeJSON(t, rr, &resp)
	if len(resp.Data) != defaultPostPageSize || resp.Meta.Total != 8 || resp.Meta.LastPage != 2 {
		t.Errorf("len = %d meta = %+v", len(resp.Data), resp.Meta)
	}

	rr = env.do(t, "GET", "/api/v1/posts?status=published&limit=10", nil, "")
	assertStatus(t, rr, http.StatusOK)
	resp = envelope[[]model.Post]{}
	decodeJSON(t, rr, &resp)
	if len(resp.Data) != 4 || resp.Meta.Total != 4 {
		t.Errorf("published len = %d meta = %+v", len(resp.Data), resp.Meta)
	}

	for _, q := range []string{"?page=0", "?status=archived"} {
		rr = env.do(t, "GET", "/api/v1/posts"+q, nil, "")
		assertStatus(t, rr, http.StatusBadRequest)
	}
}

func TestGetPostBadID(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"abc", "0", "-1"} {
		rr := env.do(t, "GET", "/api/v1/posts/"+id, nil, "")
		assertStatus(t, rr, http.StatusBadRequest)
	}
}
