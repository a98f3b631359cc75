// Package migrations holds the versioned SQL schema and applies it to
// PostgreSQL and ClickHouse, recording applied versions in schema_migrations.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var sqlFiles embed.FS

// Dialect names a directory of migrations.
type Dialect string

// Supported dialects.
const (
	Postgres   Dialect = "postgres"
	Clickhouse Dialect = "clickhouse"
)

// Migration is one embedded SQL file named <version>_<name>.sql.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// Load returns the migrations of d sorted by version.
func Load(d Dialect) ([]Migration, error) {
	entries, err := fs.ReadDir(sqlFiles, string(d))
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", d, err)
	}

	var out []Migration
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		version, name, ok := strings.Cut(strings.TrimSuffix(e.Name(), ".sql"), "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("migration %s: want <version>_<name>.sql", e.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %s", prev, e.Name(), version)
		}
		seen[version] = e.Name()

		data, err := fs.ReadFile(sqlFiles, path.Join(string(d), e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// pending filters out migrations whose version is in applied.
func pending(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}
