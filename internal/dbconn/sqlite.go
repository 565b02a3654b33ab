package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "modernc.org/sqlite"
)

type sqliteConnector struct{}

func (sqliteConnector) driverName() string { return "sqlite" }

// dsn opens the file through a read-only URI so the engine itself refuses
// writes. A missing file is rejected here because mode=ro would otherwise
// surface a confusing "unable to open" error on first query. The path is
// escaped per segment; a literal ? or # would otherwise be read as the
// URI query or fragment.
func (sqliteConnector) dsn(cfg Config) (string, error) {
	if _, err := os.Stat(cfg.SQLitePath); err != nil {
		return "", fmt.Errorf("sqlite file %q: %w", cfg.SQLitePath, err)
	}
	escaped := (&url.URL{Path: cfg.SQLitePath}).EscapedPath()
	return "file:" + escaped + "?mode=ro", nil
}

func (sqliteConnector) enforceReadOnly(ctx context.Context, db *sql.DB) error {
	// mode=ro in the DSN already covers it.
	return nil
}

func (sqliteConnector) listTablesQuery(database string) (string, []any) {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`, nil
}

func (sqliteConnector) columnsQuery(database, table string) (string, []any) {
	return `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, []any{table}
}

func (sqliteConnector) quoteIdent(name string) string {
	return `"` + name + `"`
}
