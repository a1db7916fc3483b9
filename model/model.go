// Package model is the model compiler (spec §4.1, component C4): it
// drives the parsed model DSL (package model/ast, phase 1) through
// fragment expansion, name resolution, type checking, per-subsystem
// dispatch (package model/pgschema for @postgres) and cross-subsystem
// validation (phase 6), and returns the compiled Model. Compile does not
// serialize it; the portable binary image is written separately by
// package model/image.
//
// Every phase reports as many independent diagnostics as it can rather
// than aborting on the first one (spec §4.1); Compile stops and returns
// early only when a phase's errors would make the next phase's output
// meaningless (e.g. type checking against an unresolved symbol table).
package model

import (
	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/model/ast"
	"github.com/exocore-dev/exocore/model/pgschema"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// Model is the fully compiled output of one or more DSL source files:
// the Postgres schema @postgres dispatch derived, plus the per-type
// access policy cross-checked against it.
type Model struct {
	Schema   *sqlmodel.Schema
	Policies map[string]Policy
	Types    []*ast.TypeDecl
}

// Source is one named DSL source file to compile, mirroring
// ast.ParseFile's (path, src) pair.
type Source struct {
	Path string
	Text string
}

// Compile runs every phase of spec §4.1 over the given sources in
// order: parse, expand fragments, resolve names, type check, dispatch
// to @postgres, cross-check, and is the thing callers (the CLI, the
// resolver's startup path) invoke to turn DSL text into a Model.
func Compile(sources []Source, schemaName string) (*Model, exocore.CompileErrors) {
	var files []*ast.File
	var errs exocore.CompileErrors

	// Phase 1: lex/parse.
	for _, src := range sources {
		f, perrs := ast.ParseFile(src.Path, src.Text)
		errs = append(errs, perrs...)
		if f != nil {
			files = append(files, f)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	// Phase 2: fragment expansion.
	types, ferrs := expandFragments(files)
	errs = append(errs, ferrs...)
	if len(errs) > 0 {
		return nil, errs
	}

	// Phase 3: name resolution.
	st, rerrs := resolveNames(types, files)
	errs = append(errs, rerrs...)
	if len(errs) > 0 {
		return nil, errs
	}

	// Phase 4: type check / coercion.
	errs = append(errs, typeCheck(types, st)...)
	if len(errs) > 0 {
		return nil, errs
	}

	// Phase 5: subsystem dispatch (@postgres).
	builder := pgschema.NewBuilder(schemaName)
	builder.AddExpandedTypes(types)
	schema, berrs := builder.Build()
	errs = append(errs, berrs...)

	// Phase 6: cross-subsystem validation (access expressions against
	// the field sets and context declarations just resolved).
	policies, cerrs := crossCheck(types, st)
	errs = append(errs, cerrs...)

	if len(errs) > 0 {
		return nil, errs
	}

	return &Model{Schema: schema, Policies: policies, Types: types}, nil
}
