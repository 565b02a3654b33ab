package dbconn

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type mysqlConnector struct{}

func (mysqlConnector) driverName() string { return "mysql" }

func (mysqlConnector) dsn(cfg Config) (string, error) {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	// Session variables in Params are replayed by the driver on every new
	// connection, so read-only survives pool reconnects and lifetime churn.
	mc.Params = map[string]string{"transaction_read_only": "1"}
	return mc.FormatDSN(), nil
}

// enforceReadOnly verifies the DSN session variable actually took effect.
func (mysqlConnector) enforceReadOnly(ctx context.Context, db *sql.DB) error {
	var ro int
	if err := db.QueryRowContext(ctx, "SELECT @@session.transaction_read_only").Scan(&ro); err != nil {
		return fmt.Errorf("check session read-only: %w", err)
	}
	if ro != 1 {
		return fmt.Errorf("session is not read-only")
	}
	return nil
}

func (mysqlConnector) listTablesQuery(database string) (string, []any) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name`, []any{database}
}

func (mysqlConnector) columnsQuery(database, table string) (string, []any) {
	return `SELECT column_name, column_type FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`,
		[]any{database, table}
}

func (mysqlConnector) quoteIdent(name string) string {
	return "`" + name + "`"
}
