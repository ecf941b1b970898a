package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/bemfst/portal/internal/client"
	"github.com/bemfst/portal/internal/config"
)

const defaultServerURL = "http://127.0.0.1:8080"

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// PORTAL_DATA_DIR env var, or ~/.portal as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("PORTAL_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".portal")
}

// resolveServerURL returns the --url flag, PORTAL_URL, or the local default.
func resolveServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	if u := viper.GetString("url"); u != "" {
		return u
	}
	return defaultServerURL
}

// newLogger builds the process logger from the log settings.
func newLogger(s config.LogSettings, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(s.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// sessionStore is the CLI session file in the data directory.
func sessionStore() *client.FileStore {
	return client.NewFileStore(filepath.Join(resolveDataDir(), "session.json"))
}

// newAPIClient returns a client whose session lives in the data directory.
func newAPIClient() *client.Client {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return client.New(resolveServerURL(), sessionStore(), client.WithLogger(quiet))
}

// readPassword prompts for a password without echo. With confirm set the
// password is asked twice and both entries must match.
func readPassword(prompt string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return string(pw), nil
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if string(pw) != string(again) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
