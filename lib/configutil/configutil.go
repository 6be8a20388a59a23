// Package configutil loads json5 configuration files with an optional
// `.local.` override next to them, so checked-in defaults and personal
// settings (credentials, endpoints) can coexist.
package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func localName(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s.local%s", stem, ext))
}

func readInto[T any](path string, out *T) (found bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	if err := json5.Unmarshal(contents, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads `name` and, when present, merges `<stem>.local.<ext>`
// on top of it. os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T

	foundDefault, err := readInto(name, &out)
	if err != nil {
		return out, err
	}

	local := localName(name)
	var override T
	foundLocal, err := readInto(local, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", local)
	}

	if !foundDefault && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks from the working directory up to the
// filesystem root looking for `name`, reading the first match the way
// ReadConfig does. Useful for repo-level config like telemetry.json5.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return zero, os.ErrNotExist
		}
		current = parent
	}
}
