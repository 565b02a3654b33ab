package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

type connector interface {
	driverName() string
	dsn(cfg Config) (string, error)
	enforceReadOnly(ctx context.Context, db *sql.DB) error
	listTablesQuery(database string) (string, []any)
	columnsQuery(database, table string) (string, []any)
	quoteIdent(name string) string
}

func connectorFor(kind Kind) (connector, error) {
	switch kind {
	case KindSQLite:
		return sqliteConnector{}, nil
	case KindMySQL:
		return mysqlConnector{}, nil
	case KindPostgres:
		return postgresConnector{}, nil
	default:
		return nil, &ConfigError{Field: "kind", Reason: fmt.Sprintf("unsupported database kind %q", string(kind))}
	}
}

// Conn is a live, read-only handle to the database a session chats with.
// It is only ever used by the query agent, never by the UI directly.
type Conn struct {
	db      *sql.DB
	kind    Kind
	conn    connector
	cfg     Config
	sql     sq.StatementBuilderType
	maxRows int
}

// Open validates cfg, dispatches on its kind and returns a pinged handle.
// Bad config comes back as *ConfigError, an unreachable or unauthenticated
// database as *ConnectError. No retries; config problems are for the user.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := connectorFor(cfg.Kind)
	if err != nil {
		return nil, err
	}

	dsn, err := conn.dsn(cfg)
	if err != nil {
		return nil, &ConnectError{Kind: cfg.Kind, Err: err}
	}

	db, err := sql.Open(conn.driverName(), dsn)
	if err != nil {
		return nil, &ConnectError{Kind: cfg.Kind, Err: err}
	}

	// One connection per session; a turn is single-threaded.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectError{Kind: cfg.Kind, Err: err}
	}
	if err := conn.enforceReadOnly(ctx, db); err != nil {
		_ = db.Close()
		return nil, &ConnectError{Kind: cfg.Kind, Err: err}
	}

	maxRows := cfg.MaxResultRows
	if maxRows <= 0 {
		maxRows = DefaultMaxResultRows
	}

	var placeholder sq.PlaceholderFormat = sq.Question
	if cfg.Kind == KindPostgres {
		placeholder = sq.Dollar
	}

	return &Conn{
		db:      db,
		kind:    cfg.Kind,
		conn:    conn,
		cfg:     cfg,
		sql:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		maxRows: maxRows,
	}, nil
}

func (c *Conn) Kind() Kind { return c.kind }

func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Result holds one statement's output, stringified for prompt assembly.
type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// Text renders the result as a compact pipe-separated table.
func (r *Result) Text() string {
	if r == nil || len(r.Columns) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteByte('\n')
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	if len(r.Rows) == 0 {
		b.WriteString("(no rows)\n")
	}
	if r.Truncated {
		b.WriteString("(more rows truncated)\n")
	}
	return b.String()
}

// Query runs one agent-supplied statement after checking it is a single
// read-only SELECT. Result sets are capped at the configured row limit.
func (c *Conn) Query(ctx context.Context, stmt string) (*Result, error) {
	if err := validateStatement(stmt); err != nil {
		return nil, err
	}
	return c.query(ctx, stmt)
}

func (c *Conn) query(ctx context.Context, stmt string, args ...any) (*Result, error) {
	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	res := &Result{Columns: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if len(res.Rows) >= c.maxRows {
			res.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = stringify(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Column describes one column of a user table.
type Column struct {
	Name string
	Type string
}

// TableInfo is the schema context the agent feeds into its prompts:
// column layout plus a few sample rows.
type TableInfo struct {
	Name    string
	Columns []Column
	Sample  *Result
}

// Tables lists the user tables visible on this connection.
func (c *Conn) Tables(ctx context.Context) ([]string, error) {
	q, args := c.conn.listTablesQuery(c.cfg.Database)
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

const sampleRowLimit = 3

// Schema gathers column info and sample rows for every user table.
func (c *Conn) Schema(ctx context.Context) ([]TableInfo, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]TableInfo, 0, len(tables))
	for _, table := range tables {
		info := TableInfo{Name: table}

		q, args := c.conn.columnsQuery(c.cfg.Database, table)
		rows, err := c.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("read schema of %s: %w", table, err)
		}
		for rows.Next() {
			var col Column
			if err := rows.Scan(&col.Name, &col.Type); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan column of %s: %w", table, err)
			}
			info.Columns = append(info.Columns, col)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("read schema of %s: %w", table, err)
		}
		rows.Close()

		sampleSQL, sampleArgs, err := c.sql.Select("*").
			From(c.conn.quoteIdent(table)).
			Limit(sampleRowLimit).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build sample query for %s: %w", table, err)
		}
		sample, err := c.query(ctx, sampleSQL, sampleArgs...)
		if err != nil {
			return nil, fmt.Errorf("sample rows of %s: %w", table, err)
		}
		info.Sample = sample

		infos = append(infos, info)
	}
	return infos, nil
}
