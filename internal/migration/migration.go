package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// MigrationFile is one direction of a versioned migration script.
type MigrationFile struct {
	Version   int64  // Version number from the file name
	Name      string // Descriptive name
	Direction string // "up" or "down"
	FilePath  string // Path inside the migration file system
}

// migrationFilenameRegex parses "<version>_<name>.<up|down>.sql".
var migrationFilenameRegex = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

// DiscoverMigrations lists the migration scripts in dir of fsys, sorted by
// version with "down" before "up" for the same version. A missing directory
// yields no migrations.
func DiscoverMigrations(fsys fs.FS, dir string) ([]MigrationFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []MigrationFile{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", dir, err)
	}

	var migrations []MigrationFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFilenameRegex.FindStringSubmatch(entry.Name())
		if len(match) != 4 {
			continue
		}
		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			// Out of int64 range.
			continue
		}
		migrations = append(migrations, MigrationFile{
			Version:   version,
			Name:      match[2],
			Direction: match[3],
			FilePath:  path.Join(dir, entry.Name()),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		if migrations[i].Version != migrations[j].Version {
			return migrations[i].Version < migrations[j].Version
		}
		return migrations[i].Direction < migrations[j].Direction
	})
	return migrations, nil
}
