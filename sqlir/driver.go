// Package sqlir is the SQL statement IR and database driver described in
// spec §4.3 (component C2): typed Select/Insert/Update/Delete trees,
// parameterized rendering, and the database/sql wrapper the resolver
// issues rendered statements through. Exograph targets PostgreSQL only
// (spec §1), so — unlike the teacher's multi-dialect dialect.Driver
// split — this package talks directly to github.com/lib/pq and drops
// the MySQL/SQLite dialect switch entirely.
package sqlir

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores,
// dots for schema.name) used as session-variable names.
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue escapes a string value for safe use in a SET
// statement: doubles single quotes and escapes backslashes.
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// Driver wraps a *sql.DB opened against Postgres.
type Driver struct {
	Conn
}

// Open opens a new connection pool against source, a libpq connection
// string (spec glossary "Database connection").
func Open(source string) (*Driver, error) {
	db, err := sql.Open("postgres", source)
	if err != nil {
		return nil, err
	}
	return OpenDB(db), nil
}

// OpenDB wraps an already-opened *sql.DB.
func OpenDB(db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db}}
}

// DB returns the underlying *sql.DB.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Tx begins a transaction immediately; the caller commits or rolls it
// back.
func (d *Driver) Tx(ctx context.Context) (*Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: Conn{ExecQuerier: tx}, Tx: tx}, nil
}

// Close closes the underlying connection pool.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx wraps an in-flight *sql.Tx.
type Tx struct {
	Conn
	*sql.Tx
}

// Query runs a rendered query inside the transaction. Conn and *sql.Tx
// both supply a Query method, so Tx names the Conn form explicitly.
func (t *Tx) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	return t.Conn.Query(ctx, query, args)
}

// Exec runs a rendered statement inside the transaction (see Query).
func (t *Tx) Exec(ctx context.Context, query string, args []any) error {
	return t.Conn.Exec(ctx, query, args)
}

type ctxVarsKey struct{}

// sessionVars holds session/transaction variables to set before every
// statement — used to smuggle the viewer's claims into Postgres session
// state for row-level-security policies (spec §5 "Residue" lowers to
// a WHERE clause, but deployments layering RLS on top read these).
type sessionVars struct {
	vars []struct{ k, v string }
}

// WithVar returns a context that holds a session variable to be set
// before every query issued through it.
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars, struct{ k, v string }{k: name, v: value})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// VarFromContext returns the session variable value previously attached
// with WithVar.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for _, s := range sv.vars {
		if s.k == name {
			return s.v, true
		}
	}
	return "", false
}

// WithIntVar is WithVar for integer values.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// ExecQuerier wraps the standard Exec and Query methods shared by
// *sql.DB and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn adapts an ExecQuerier to the rendered-statement calling
// convention used throughout sqlir: a query string plus a flat []any
// of already-ordered parameters (package render produces both).
type Conn struct {
	ExecQuerier
}

// Exec executes a rendered statement that does not return rows.
func (c Conn) Exec(ctx context.Context, query string, args []any) (rerr error) {
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return fmt.Errorf("sqlir: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlir: exec: %w", err)
	}
	return nil
}

// ExecResult executes a rendered statement and returns its sql.Result,
// used for mutations that need RowsAffected (spec §6 "exactly one row
// for a *One mutation" check).
func (c Conn) ExecResult(ctx context.Context, query string, args []any) (res sql.Result, rerr error) {
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlir: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	res, err = ex.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlir: exec: %w", err)
	}
	return res, nil
}

// Query executes a rendered statement that returns rows.
func (c Conn) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlir: query: set session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return nil, fmt.Errorf("sqlir: query: %w", err)
	}
	r := &Rows{ColumnScanner: rows}
	if cf != nil {
		r.ColumnScanner = rowsWithCloser{rows, cf}
	}
	return r, nil
}

// maySetVars sets any session variables attached to ctx before handing
// back an ExecQuerier to run the real statement on, pinning a single
// *sql.Conn out of the pool for the duration when the base connection
// is a *sql.DB (so RESET runs on the same physical connection).
func (c Conn) maySetVars(ctx context.Context) (ExecQuerier, func() error, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(sv.vars) == 0 {
		return c, nil, nil
	}
	var (
		ex    ExecQuerier
		cf    func() error
		reset []string
		seen  = make(map[string]struct{}, len(sv.vars))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("sqlir: unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	for _, s := range sv.vars {
		if !isValidIdentifier(s.k) {
			if cf != nil {
				_ = cf()
			}
			return nil, nil, fmt.Errorf("sqlir: invalid session variable name: %q", s.k)
		}
		if _, ok := seen[s.k]; !ok {
			reset = append(reset, fmt.Sprintf("RESET %s", s.k))
			seen[s.k] = struct{}{}
		}
		escaped := escapeStringValue(s.v)
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", s.k, escaped)); err != nil {
			if cf != nil {
				err = errors.Join(err, cf())
			}
			return nil, nil, err
		}
	}
	if cls := cf; cf != nil && len(reset) > 0 {
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(cleanupCtx, q); err != nil {
					return errors.Join(err, cls())
				}
			}
			return cls()
		}
	}
	return ex, cf, nil
}

type (
	// Rows wraps sql.Rows behind ColumnScanner so a session-variable
	// cleanup hook can be spliced into Close.
	Rows struct{ ColumnScanner }
	// NullBool aliases sql.NullBool.
	NullBool = sql.NullBool
	// NullInt64 aliases sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString aliases sql.NullString.
	NullString = sql.NullString
	// NullFloat64 aliases sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime aliases sql.NullTime.
	NullTime = sql.NullTime
)

// NullScanner adapts any sql.Scanner to tolerate a NULL value.
type NullScanner struct {
	S     sql.Scanner
	Valid bool
}

// Scan implements sql.Scanner.
func (n *NullScanner) Scan(value any) error {
	n.Valid = value != nil
	if n.Valid {
		return n.S.Scan(value)
	}
	return nil
}

// ColumnScanner is the subset of *sql.Rows used for scanning.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

func (r rowsWithCloser) Close() error {
	return errors.Join(r.ColumnScanner.Close(), r.closer())
}
