// Package session is the query-submission layer. It owns the backend
// connection, materializes deterministic orderings for tables that have
// none, and is the only place compiled SQL is executed.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/sqlframe/internal/core"
	"github.com/roach88/sqlframe/internal/ordering"
	"github.com/roach88/sqlframe/internal/sqlexpr"
)

// Session wraps a SQLite database and implements core.Session.
type Session struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path. Use ":memory:"
// for an in-process throwaway database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(path string) (*Session, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection also keeps
	// :memory: databases visible across queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return &Session{db: db}, nil
}

// Close closes the database connection.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct statements, e.g. loading
// fixture data. Prefer Session methods for queries.
func (s *Session) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Table builds a logical table over a named base table, introspecting its
// schema from the database.
func (s *Session) Table(ctx context.Context, name string) (*core.TableExpression, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return nil, fmt.Errorf("failed to introspect table %q: %w", name, err)
	}
	defer rows.Close()

	var cols []sqlexpr.Column
	for rows.Next() {
		var cid int
		var colName, declType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &colName, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to read schema of %q: %w", name, err)
		}
		cols = append(cols, sqlexpr.Column{Name: colName, Typ: declaredType(declType)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema of %q: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no such table: %q", name)
	}
	return core.FromTable(s, &sqlexpr.Table{Name: name, Columns: cols})
}

// declaredType maps a SQLite declared column type to a backend type,
// following SQLite's affinity rules.
func declaredType(decl string) sqlexpr.Type {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "BOOL"):
		return sqlexpr.TypeBool
	case strings.Contains(d, "INT"):
		return sqlexpr.TypeInt64
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return sqlexpr.TypeFloat64
	case strings.Contains(d, "CHAR"), strings.Contains(d, "TEXT"), strings.Contains(d, "CLOB"):
		return sqlexpr.TypeString
	case strings.Contains(d, "DATETIME"), strings.Contains(d, "TIMESTAMP"):
		return sqlexpr.TypeTimestamp
	case strings.Contains(d, "DATE"):
		return sqlexpr.TypeDate
	case strings.Contains(d, "TIME"):
		return sqlexpr.TypeTime
	case strings.Contains(d, "NUMERIC"), strings.Contains(d, "DECIMAL"):
		return sqlexpr.TypeNumeric
	default:
		return sqlexpr.TypeString
	}
}

// SequentialOrdering derives a relation carrying every column of rel plus a
// dense 0..N-1 integer order column, ordered deterministically by all of
// rel's columns. Implements core.Session.
func (s *Session) SequentialOrdering(rel sqlexpr.Relation) (sqlexpr.Relation, ordering.Spec, error) {
	cols, err := relationColumns(rel)
	if err != nil {
		return nil, ordering.Spec{}, err
	}

	keys := make([]sqlexpr.OrderKey, 0, len(cols))
	out := make([]sqlexpr.SelectColumn, 0, len(cols)+1)
	for _, c := range cols {
		ref := &sqlexpr.ColumnRef{Name: c.Name, Typ: c.Typ}
		keys = append(keys, sqlexpr.OrderKey{Expr: ref})
		out = append(out, sqlexpr.SelectColumn{Alias: c.Name, Expr: ref})
	}

	orderID := core.GenerateGUID("order")
	rowNumber := &sqlexpr.Window{
		Fn:      sqlexpr.NewFunc("row_number", sqlexpr.TypeInt64),
		OrderBy: keys,
	}
	out = append(out, sqlexpr.SelectColumn{
		Alias: orderID,
		Expr: sqlexpr.NewBinary(sqlexpr.OpSub,
			rowNumber, sqlexpr.Int(1), sqlexpr.TypeInt64),
	})

	derived := &sqlexpr.Select{From: rel, Columns: out}
	spec := ordering.Spec{
		TotalOrderIDColumn: orderID,
		Sequential:         true,
	}
	return derived, spec, nil
}

// relationColumns lists the output columns of a relation that can serve as
// ordering keys. Join relations have no flat column list of their own and
// must be wrapped in a Select first.
func relationColumns(rel sqlexpr.Relation) ([]sqlexpr.Column, error) {
	switch r := rel.(type) {
	case *sqlexpr.Table:
		return append([]sqlexpr.Column(nil), r.Columns...), nil
	case *sqlexpr.Select:
		cols := make([]sqlexpr.Column, 0, len(r.Columns))
		for _, c := range r.Columns {
			cols = append(cols, sqlexpr.Column{Name: c.Alias, Typ: c.Expr.ExprType()})
		}
		return cols, nil
	default:
		return nil, fmt.Errorf("cannot order relation of type %T", rel)
	}
}

// Result is one executed query: its job token, the SQL that ran, and the
// result set fully read into memory.
type Result struct {
	JobID   string
	SQL     string
	Columns []string
	Rows    [][]any
}

// Submit compiles a logical table to SQL, executes it, and reads the full
// result set. This is the only boundary where core-built SQL runs.
func (s *Session) Submit(ctx context.Context, t *core.TableExpression) (*Result, error) {
	query, err := t.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to compile query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(names))
		scan := make([]any, len(names))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result rows: %w", err)
	}

	return &Result{
		JobID:   uuid.Must(uuid.NewV7()).String(),
		SQL:     query,
		Columns: names,
		Rows:    out,
	}, nil
}
