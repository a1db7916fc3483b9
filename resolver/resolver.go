// Package resolver is the request execution engine (spec §4.4/§6,
// component C6): it drives one GraphQL operation through its full
// lifecycle — Received, Parsed, Validated, Planned, Executing,
// Committed or RolledBack, Responded — planning it with package
// gqlplan, running its interceptor chain, and executing the resulting
// sqlir statement: a mutation inside a single per-request transaction,
// a query directly on the connection pool.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/gqlplan"
	"github.com/exocore-dev/exocore/model"
	"github.com/exocore-dev/exocore/sqlir"
)

// Request is one GraphQL root-field operation in flight. Its ID is
// generated once per request (not per retry) so every log line and
// interceptor invocation for the same operation can be correlated.
type Request struct {
	ID        string
	Operation string // the GraphQL operation name, for logging/cache keys
	TypeName  string
	Op        exocore.Op
	AccessCtx access.Context
	Args      gqlplan.QueryArgs
	Data      map[string]any // create/update input, nil for queries/delete
	RowID     any

	State State
	Plan  *gqlplan.Plan

	loaders map[string]any // relation name -> *RelationLoader[K, V], request-scoped
}

// NewRequest starts a request in its initial Received state.
func NewRequest(typeName string, op exocore.Op) *Request {
	return &Request{ID: uuid.NewString(), TypeName: typeName, Op: op, State: Received, loaders: map[string]any{}}
}

// LoaderFor returns the request-scoped RelationLoader for relation,
// lazily constructing it from makeLoader on first use so every field
// resolver selecting the same relation shares one batch instead of
// each opening its own (spec §6's per-request context cache).
func LoaderFor[K comparable, V any](req *Request, relation string, makeLoader func() *RelationLoader[K, V]) *RelationLoader[K, V] {
	if existing, ok := req.loaders[relation]; ok {
		return existing.(*RelationLoader[K, V])
	}
	l := makeLoader()
	req.loaders[relation] = l
	return l
}

func (r *Request) moveTo(next State) error {
	s, err := advance(r.State, next)
	if err != nil {
		return err
	}
	r.State = s
	return nil
}

// Resolver ties a compiled model, its planner, a database connection
// and a plugin runtime together into one request executor.
type Resolver struct {
	Model        *model.Model
	Planner      *gqlplan.Planner
	DB           *sqlir.Driver
	Plugin       Plugin
	Log          *slog.Logger
	ImageVersion uint32
}

// NewResolver wires the four collaborators together; Log defaults to
// slog.Default() and Plugin to NoPlugin{} when nil, matching spec §6
// "no configured plugin runtime is a loud failure only once a
// `@before`/`@around` handler is actually invoked, not at startup".
func NewResolver(m *model.Model, db *sqlir.Driver, imageVersion uint32) *Resolver {
	return &Resolver{
		Model:        m,
		Planner:      gqlplan.NewPlanner(m, nil),
		DB:           db,
		Plugin:       NoPlugin{},
		Log:          slog.Default(),
		ImageVersion: imageVersion,
	}
}

// ExecuteQuery drives a query-shaped request (`t(id)`/`ts(...)`) through
// its full lifecycle and returns its rows as plain maps.
func (rv *Resolver) ExecuteQuery(ctx context.Context, req *Request, ic gqlplan.Interceptors) ([]map[string]any, error) {
	log := rv.Log.With("request_id", req.ID, "type", req.TypeName, "op", req.Op.String())

	if err := req.moveTo(Parsed); err != nil {
		return nil, err
	}
	if rv.Model.Schema == nil {
		return nil, &exocore.InternalError{Cause: fmt.Errorf("resolver: model has no compiled schema")}
	}
	if err := req.moveTo(Validated); err != nil {
		return nil, err
	}

	plan, err := rv.Planner.PlanQuery(ctx, rv.ImageVersion, req.Operation, req.TypeName, req.AccessCtx, req.Args)
	if err != nil {
		log.ErrorContext(ctx, "planning failed", "error", err)
		return nil, err
	}
	req.Plan = plan
	if err := req.moveTo(Planned); err != nil {
		return nil, err
	}

	if err := req.moveTo(Executing); err != nil {
		return nil, err
	}

	result, err := ic.Run(ctx, func(ctx context.Context) (any, error) {
		return rv.runSelect(ctx, plan.Select)
	})
	if err != nil {
		_ = req.moveTo(RolledBack)
		_ = req.moveTo(Responded)
		log.ErrorContext(ctx, "query execution failed", "error", err)
		return nil, rv.classify(err)
	}

	if err := req.moveTo(Committed); err != nil {
		return nil, err
	}
	if err := req.moveTo(Responded); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "query completed")
	return result.([]map[string]any), nil
}

// ExecuteMutation drives a create/update/delete-shaped request through
// its lifecycle inside one transaction, committing on success and
// rolling back on any error (spec §6 "Transactional envelope").
func (rv *Resolver) ExecuteMutation(ctx context.Context, req *Request, ic gqlplan.Interceptors) (map[string]any, error) {
	log := rv.Log.With("request_id", req.ID, "type", req.TypeName, "op", req.Op.String())

	if err := req.moveTo(Parsed); err != nil {
		return nil, err
	}
	if err := req.moveTo(Validated); err != nil {
		return nil, err
	}

	plan, err := rv.planMutation(req)
	if err != nil {
		return nil, err
	}
	req.Plan = plan
	if err := req.moveTo(Planned); err != nil {
		return nil, err
	}
	if err := req.moveTo(Executing); err != nil {
		return nil, err
	}

	tx, err := rv.DB.Tx(ctx)
	if err != nil {
		_ = req.moveTo(RolledBack)
		_ = req.moveTo(Responded)
		return nil, &exocore.InternalError{Cause: err}
	}

	result, err := ic.Run(ctx, func(ctx context.Context) (any, error) {
		return rv.runMutation(ctx, tx, plan)
	})
	if err != nil {
		_ = tx.Rollback()
		_ = req.moveTo(RolledBack)
		_ = req.moveTo(Responded)
		log.ErrorContext(ctx, "mutation execution failed", "error", err)
		return nil, rv.classify(err)
	}
	if err := tx.Commit(); err != nil {
		_ = req.moveTo(RolledBack)
		_ = req.moveTo(Responded)
		return nil, &exocore.InternalError{Cause: err}
	}

	if err := req.moveTo(Committed); err != nil {
		return nil, err
	}
	if err := req.moveTo(Responded); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "mutation completed")
	return result.(map[string]any), nil
}

func (rv *Resolver) planMutation(req *Request) (*gqlplan.Plan, error) {
	switch {
	case req.Op.Is(exocore.OpCreateOne) || req.Op.Is(exocore.OpCreateMany):
		return rv.Planner.PlanCreate(req.TypeName, req.AccessCtx, req.Data)
	case req.Op.Is(exocore.OpUpdateOne) || req.Op.Is(exocore.OpUpdateMany):
		return rv.Planner.PlanUpdate(req.TypeName, req.AccessCtx, req.RowID, req.Data)
	case req.Op.Is(exocore.OpDeleteOne) || req.Op.Is(exocore.OpDeleteMany):
		return rv.Planner.PlanDelete(req.TypeName, req.AccessCtx, req.RowID)
	default:
		return nil, fmt.Errorf("resolver: %s is not a mutation operation", req.Op)
	}
}

func (rv *Resolver) runSelect(ctx context.Context, sel *sqlir.Select) ([]map[string]any, error) {
	rendered := sqlir.RenderSelect(sel)
	rows, err := rv.DB.Query(ctx, rendered.Query, rendered.Args)
	if err != nil {
		return nil, &exocore.SQLError{Cause: err, Query: rendered.Query}
	}
	defer rows.Close()
	return scanRows(rows)
}

func (rv *Resolver) runMutation(ctx context.Context, tx *sqlir.Tx, plan *gqlplan.Plan) (map[string]any, error) {
	var rendered sqlir.Rendered
	switch plan.Kind {
	case gqlplan.OpInsert:
		rendered = sqlir.RenderInsert(plan.Insert)
	case gqlplan.OpUpdate:
		rendered = sqlir.RenderUpdate(plan.Update)
	case gqlplan.OpDelete:
		rendered = sqlir.RenderDelete(plan.Delete)
	default:
		return nil, fmt.Errorf("resolver: plan kind %d is not a mutation", plan.Kind)
	}

	rows, err := tx.Query(ctx, rendered.Query, rendered.Args)
	if err != nil {
		return nil, &exocore.SQLError{Cause: err, Query: rendered.Query}
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, exocore.NewNotFoundError(plan.Kind.String())
	case 1:
		return results[0], nil
	default:
		return nil, exocore.ErrNotSingular
	}
}

// classify normalizes a raw execution error into exocore's public error
// taxonomy: a caller-facing error type (already one of NotFoundError/
// AuthorizationError/SQLError/...) is returned unchanged; anything else
// is wrapped so its cause never reaches the client.
func (rv *Resolver) classify(err error) error {
	switch {
	case exocore.IsNotFound(err), errors.Is(err, exocore.ErrNotSingular):
		return err
	}
	switch exocore.KindOf(err) {
	case exocore.KindInternal:
		if _, ok := err.(*exocore.InternalError); ok {
			return err
		}
		return &exocore.InternalError{Cause: err}
	default:
		return err
	}
}

// scanRows drains rows into plain maps keyed by column name, the shape
// the GraphQL response encoder (outside this package's scope) expects.
func scanRows(rows *sqlir.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FlushLoaders runs every relation loader staged during one request's
// field resolution, in registration order. Statements within a single
// request's transaction run sequentially (spec §5); concurrent
// fan-out belongs to the migration package's independent-scope schema
// diffing, not here.
func FlushLoaders(ctx context.Context, flush ...func(context.Context) error) error {
	for _, f := range flush {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return nil
}
