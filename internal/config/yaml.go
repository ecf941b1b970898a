package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultHeader = `# Portal configuration
#
# Every key can be overridden with an environment variable: upper-case the
# key, replace dots with underscores and prefix PORTAL_, for example
# PORTAL_AUTH_JWT_SECRET. Keep secrets in the environment, not in this file.
#
# Generate auth.password_hash with: portal admin hash-password

`

// DefaultYAML renders the default configuration.
func DefaultYAML() ([]byte, error) {
	tree := map[string]any{}
	for _, d := range defaults {
		setPath(tree, d.key, d.value)
	}
	body, err := MarshalYAML(tree)
	if err != nil {
		return nil, err
	}
	return append([]byte(defaultHeader), body...), nil
}

// MarshalYAML encodes v with two-space indentation.
func MarshalYAML(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func setPath(tree map[string]any, key string, value any) {
	for {
		head, rest, nested := strings.Cut(key, ".")
		if !nested {
			tree[head] = value
			return
		}
		child, ok := tree[head].(map[string]any)
		if !ok {
			child = map[string]any{}
			tree[head] = child
		}
		tree, key = child, rest
	}
}
