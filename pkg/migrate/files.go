package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)
	fileNameRe    = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
)

// migrationTemplate keeps new files to SQL that both postgres and sqlite accept.
const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: keep statements portable between postgres and sqlite
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

type migrationFile struct {
	version int64
	name    string
}

func parseFileName(name string) (migrationFile, bool) {
	m := fileNameRe.FindStringSubmatch(name)
	if m == nil {
		return migrationFile{}, false
	}
	version, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return migrationFile{}, false
	}
	return migrationFile{version: version, name: name}, true
}

func slugify(name string) string {
	slug := slugInvalidRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(slug, "_")
}

// listFiles returns the .sql files of dir ordered by version. Any .sql file that
// does not follow the naming scheme is an error.
func listFiles(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		file, ok := parseFileName(e.Name())
		if !ok {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// CreateSQLMigration writes <dir>/<version>_<slug>.sql. The version is the current
// UTC time, bumped past the newest existing file when the clock is behind it.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	files, err := listFiles(dir)
	if err != nil {
		return "", err
	}
	version, _ := strconv.ParseInt(time.Now().UTC().Format(versionLayout), 10, 64)
	if n := len(files); n > 0 && files[n-1].version >= version {
		version = files[n-1].version + 1
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	if err := os.WriteFile(path, []byte(fmt.Sprintf(migrationTemplate, slug)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

// ValidateDir checks file naming, version uniqueness and the goose Up/Down markers.
// An empty directory is valid.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, err := listFiles(dir)
	if err != nil {
		return err
	}
	for i, file := range files {
		if i > 0 && files[i-1].version == file.version {
			return fmt.Errorf("duplicate migration version %d in %q and %q", file.version, files[i-1].name, file.name)
		}
		body, err := os.ReadFile(filepath.Join(dir, file.name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", file.name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return fmt.Errorf("migration %q missing %q", file.name, marker)
			}
		}
	}
	return nil
}
