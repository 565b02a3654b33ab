package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresConnector struct{}

func (postgresConnector) driverName() string { return "pgx" }

func (postgresConnector) dsn(cfg Config) (string, error) {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	q.Set("default_transaction_read_only", "on")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (postgresConnector) enforceReadOnly(ctx context.Context, db *sql.DB) error {
	// default_transaction_read_only is set in the DSN.
	return nil
}

func (postgresConnector) listTablesQuery(database string) (string, []any) {
	return `SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`, nil
}

func (postgresConnector) columnsQuery(database, table string) (string, []any) {
	return `SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position`,
		[]any{table}
}

func (postgresConnector) quoteIdent(name string) string {
	return `"` + name + `"`
}
