package provision

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// MigrationStatements returns the up-migration SQL in file order, for
// callers that apply schema directly instead of through a migration tool.
func MigrationStatements() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	statements := make([]string, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(migrationsFS, "data/sql/migrations/"+name)
		if err != nil {
			return nil, err
		}
		statements = append(statements, string(data))
	}

	return statements, nil
}
