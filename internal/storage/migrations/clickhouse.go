package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const chHistoryTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     String,
    name        String,
    applied_at  DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree
ORDER BY version`

// ErrUnterminated is returned by SplitStatements for an open quote or comment.
var ErrUnterminated = errors.New("unterminated quote or comment")

// ApplyClickhouse applies pending migrations statement by statement, since
// the native protocol runs one statement per Exec. ClickHouse has no
// transactional DDL, so the version is recorded after all statements of a
// file succeed. Returns the versions applied.
func ApplyClickhouse(ctx context.Context, conn driver.Conn) ([]string, error) {
	all, err := Load(Clickhouse)
	if err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, chHistoryTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := chApplied(ctx, conn)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range pending(all, applied) {
		stmts, err := SplitStatements(m.SQL)
		if err != nil {
			return done, fmt.Errorf("parse clickhouse migration %s_%s: %w", m.Version, m.Name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return done, fmt.Errorf("apply clickhouse migration %s_%s: %w", m.Version, m.Name, err)
			}
		}
		if err := conn.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
			return done, fmt.Errorf("record clickhouse migration %s: %w", m.Version, err)
		}
		done = append(done, m.Version)
	}
	return done, nil
}

func chApplied(ctx context.Context, conn driver.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations FINAL`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// SplitStatements splits a SQL script on semicolons that are outside quotes
// and comments. Comments are dropped; empty statements are skipped.
// Quotes may be ', " or ` and escape themselves by doubling or with a backslash.
func SplitStatements(sql string) ([]string, error) {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return nil, ErrUnterminated
			}
			i += end + 3
			cur.WriteByte(' ')
		case c == '\'' || c == '"' || c == '`':
			j := closingQuote(sql, i)
			if j < 0 {
				return nil, ErrUnterminated
			}
			cur.WriteString(sql[i : j+1])
			i = j
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts, nil
}

// closingQuote returns the index of the quote closing the one at open, or -1.
func closingQuote(sql string, open int) int {
	q := sql[open]
	for j := open + 1; j < len(sql); j++ {
		switch sql[j] {
		case '\\':
			j++
		case q:
			if j+1 < len(sql) && sql[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return -1
}
