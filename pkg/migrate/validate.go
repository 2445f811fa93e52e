package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	sqlFileRe       = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	bareCreateRe    = regexp.MustCompile(`(?im)^\s*CREATE\s+(UNIQUE\s+)?(TABLE|INDEX)\s+`)
	guardedCreateRe = regexp.MustCompile(`(?im)^\s*CREATE\s+(UNIQUE\s+)?(TABLE|INDEX)\s+IF\s+NOT\s+EXISTS\s+`)
)

// ValidateTree validates every dialect directory under root.
func ValidateTree(root string) error {
	for _, subdir := range []string{"sqlite", "postgres"} {
		if err := ValidateDir(filepath.Join(root, subdir)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDir validates migration filenames, goose headers and that every
// CREATE TABLE/INDEX is guarded with IF NOT EXISTS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{} // version -> filename

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("read file %q: %w", full, err)
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
		if len(bareCreateRe.FindAllString(txt, -1)) != len(guardedCreateRe.FindAllString(txt, -1)) {
			return fmt.Errorf("migration %q has CREATE without IF NOT EXISTS", name)
		}
	}

	return nil
}
