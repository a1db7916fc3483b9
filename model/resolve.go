package model

import (
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/model/ast"
)

// symbolTable is the output of phase 3 (name resolution): every
// declared type, enum and context name, resolvable regardless of which
// file or module it was declared in (spec §4.1: "names resolve across
// the whole compilation unit, not just the declaring file").
type symbolTable struct {
	types    map[string]*ast.TypeDecl
	enums    map[string]*ast.EnumDecl
	contexts map[string]*ast.ContextDecl
	order    []string // type names in first-seen order
}

// builtinScalars is the set of DSL scalar type names that never need
// resolving against a user declaration (spec §4.1 default physical type
// mapping).
var builtinScalars = map[string]bool{
	"Int": true, "Float": true, "Boolean": true, "String": true,
	"Instant": true, "LocalDate": true, "LocalTime": true,
	"Uuid": true, "Json": true, "Blob": true, "Vector": true,
}

// resolveNames builds the symbol table and checks that every field's
// TypeRef and every relation's target names something declared
// (phase 3). Fragment spreads must already have been expanded by the
// time resolution runs, so a FieldDecl here is never a spread.
func resolveNames(types []*ast.TypeDecl, files []*ast.File) (*symbolTable, exocore.CompileErrors) {
	st := &symbolTable{
		types:    map[string]*ast.TypeDecl{},
		enums:    map[string]*ast.EnumDecl{},
		contexts: map[string]*ast.ContextDecl{},
	}
	var errs exocore.CompileErrors

	for _, td := range types {
		if _, dup := st.types[td.Name]; dup {
			errs = append(errs, &exocore.CompileError{
				Span: td.Sp, Kind: exocore.KindType,
				Message: fmt.Sprintf("type %q declared more than once", td.Name),
			})
			continue
		}
		st.order = append(st.order, td.Name)
		st.types[td.Name] = td
	}

	for _, f := range files {
		collectEnumsAndContexts(f.Decls, st)
	}

	for _, td := range types {
		for _, f := range td.Fields {
			if !resolvable(f.Type.Name, st) {
				errs = append(errs, &exocore.CompileError{
					Span: f.Type.Span(), Kind: exocore.KindType,
					Message: fmt.Sprintf("type %q: field %q references undeclared type %q", td.Name, f.Name, f.Type.Name),
				})
			}
		}
	}

	return st, errs
}

func collectEnumsAndContexts(decls []ast.Decl, st *symbolTable) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ModuleDecl:
			collectEnumsAndContexts(d.Decls, st)
		case *ast.EnumDecl:
			st.enums[d.Name] = d
		case *ast.ContextDecl:
			st.contexts[d.Name] = d
		}
	}
}

func resolvable(name string, st *symbolTable) bool {
	if builtinScalars[name] {
		return true
	}
	if _, ok := st.types[name]; ok {
		return true
	}
	_, ok := st.enums[name]
	return ok
}
