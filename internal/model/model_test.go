package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPrincipalIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		want bool
	}{
		{"admin", &Principal{Username: "root", Role: RoleAdmin}, true},
		{"other role", &Principal{Username: "root", Role: "editor"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		total    int64
		page     int
		limit    int
		wantLast int
	}{
		{65, 2, 30, 3},
		{60, 1, 30, 2},
		{0, 1, 30, 0},
		{1, 1, 30, 1},
		{10, 1, 0, 0},
	}
	for _, tt := range tests {
		m := NewPageMeta(tt.total, tt.page, tt.limit)
		if m.LastPage != tt.wantLast {
			t.Errorf("NewPageMeta(%d, %d, %d).LastPage = %d, want %d",
				tt.total, tt.page, tt.limit, m.LastPage, tt.wantLast)
		}
	}
}

func TestActivityLogNullableFields(t *testing.T) {
	entry := ActivityLog{
		ID:        7,
		Action:    ActionLogin,
		Actor:     "admin",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	for _, key := range []string{"entity_type", "entity_id", "entity_title", "ip_address"} {
		v, ok := m[key]
		if !ok {
			t.Errorf("expected %q key in JSON output", key)
			continue
		}
		if v != nil {
			t.Errorf("%s = %v, want null", key, v)
		}
	}
}

func TestPostDeletedAtNotInJSON(t *testing.T) {
	now := time.Now()
	p := Post{ID: 1, Title: "Hello", DeletedAt: &now}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := m["deleted_at"]; ok {
		t.Error("deleted_at should NOT appear in JSON output")
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("StringPtr(\"\") should be nil")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Errorf("StringPtr(\"x\") = %v", p)
	}
	if Int64Ptr(0) != nil {
		t.Error("Int64Ptr(0) should be nil")
	}
}

func TestErrorResponseJSON(t *testing.T) {
	er := ErrorResponse{Error: ErrorDetail{Code: 401, Message: "Invalid credentials"}}
	b, err := json.Marshal(er)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if m["success"] != false {
		t.Errorf("success = %v, want false", m["success"])
	}
	errObj := m["error"].(map[string]any)
	if errObj["code"] != float64(401) {
		t.Errorf("error.code = %v, want 401", errObj["code"])
	}
	if _, ok := errObj["context"]; ok {
		t.Error("context should be omitted when nil")
	}
}
