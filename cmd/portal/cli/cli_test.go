package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bemfst/portal/internal/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	t.Setenv("PORTAL_URL", "")
	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("info = %+v", info)
	}
	if info.ServerURL != defaultServerURL {
		t.Errorf("server_url = %q, want %q", info.ServerURL, defaultServerURL)
	}
}

func TestOpenAPIToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")
	if _, err := run(t, "openapi", "--base-url", "https://api.example.org", "-o", path); err != nil {
		t.Fatalf("openapi: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.1") {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "https://api.example.org" {
		t.Errorf("servers = %+v", doc.Servers)
	}
	if _, ok := doc.Paths["/api/v1/auth/login"]; !ok {
		t.Error("login path missing")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if _, err := run(t, "config", "init", "-o", path); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := run(t, "config", "init", "-o", path); err == nil {
		t.Fatal("second init without --force succeeded")
	}
	if _, err := run(t, "config", "init", "-o", path, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "retention_days: 180") {
		t.Errorf("default config missing retention:\n%s", data)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	t.Setenv("PORTAL_AUTH_USERNAME", "admin")
	t.Setenv("PORTAL_AUTH_JWT_SECRET", "a-very-secret-signing-key")

	out, err := run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "a-very-secret-signing-key") {
		t.Fatalf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, "username: admin") {
		t.Errorf("username not shown:\n%s", out)
	}
	if !strings.Contains(out, "jwt_secret: '****'") && !strings.Contains(out, `jwt_secret: "****"`) {
		t.Errorf("secret not masked:\n%s", out)
	}
}

func TestAdminHashPassword(t *testing.T) {
	out, err := run(t, "admin", "hash-password", "--password", "correct horse battery")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out)
	ok, err := service.VerifyPassword("correct horse battery", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(%q) = %v, %v", hash, ok, err)
	}

	if _, err := run(t, "admin", "hash-password", "--password", "short"); err == nil {
		t.Error("short password accepted")
	}
}

func TestServeRefusesWithoutCredentials(t *testing.T) {
	t.Setenv("PORTAL_AUTH_USERNAME", "")
	t.Setenv("PORTAL_AUTH_JWT_SECRET", "")
	_, err := run(t, "serve", "--port", "0")
	if err == nil {
		t.Fatal("serve started without credentials")
	}
	if !strings.Contains(err.Error(), "authentication is not configured") {
		t.Errorf("err = %v", err)
	}
}
