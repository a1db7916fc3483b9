package model

import (
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/model/ast"
)

// Policy is the compiled access-control policy for one logical type:
// separate expressions per operation group, matching spec §4.2's
// "@access(query=..., mutation=...)" two-slot form (a bare @access(e)
// applies e to both).
type Policy struct {
	Query    access.Expr
	Mutation access.Expr
}

// crossCheck implements phase 6: once every type's fields are known
// (phase 3) and every annotation literal is well-kinded (phase 4), this
// phase parses each type's @access/@precheck expressions and checks
// them against what they reference — the declaring type's fields
// (and, through a relation field, the related type's fields) and the
// declared context types — catching a typo like "self.onwer" or a reference to an
// undeclared context before the access solver ever sees it (spec §4.1
// phase 6, "cross-subsystem validation").
func crossCheck(types []*ast.TypeDecl, st *symbolTable) (map[string]Policy, exocore.CompileErrors) {
	policies := map[string]Policy{}
	var errs exocore.CompileErrors

	fieldSets := map[string]map[string]bool{}
	for _, td := range types {
		fields := map[string]bool{}
		for _, f := range td.Fields {
			fields[f.Name] = true
		}
		fieldSets[td.Name] = fields
	}

	for _, td := range types {
		var pol Policy
		for _, ann := range td.Annotations {
			if ann.Name != "access" && ann.Name != "precheck" {
				continue
			}
			if queryArg, ok := ann.Arg("query"); ok {
				e, ferrs := parseAccessExpr(td.Name, ann.Sp, queryArg.Value.Str)
				errs = append(errs, ferrs...)
				errs = append(errs, checkExprAgainstSubsystems(td, e, fieldSets, st)...)
				pol.Query = e
			}
			if mutationArg, ok := ann.Arg("mutation"); ok {
				e, ferrs := parseAccessExpr(td.Name, ann.Sp, mutationArg.Value.Str)
				errs = append(errs, ferrs...)
				errs = append(errs, checkExprAgainstSubsystems(td, e, fieldSets, st)...)
				pol.Mutation = e
			}
			if bareArg, ok := ann.Arg(""); ok && bareArg.Value.Kind == ast.ValExpr {
				e, ferrs := parseAccessExpr(td.Name, ann.Sp, bareArg.Value.Str)
				errs = append(errs, ferrs...)
				errs = append(errs, checkExprAgainstSubsystems(td, e, fieldSets, st)...)
				pol.Query = e
				pol.Mutation = e
			}
		}
		if pol.Query != nil || pol.Mutation != nil {
			policies[td.Name] = pol
		}
	}

	return policies, errs
}

// checkExprAgainstSubsystems walks a compiled access.Expr and confirms
// every FieldValue/ContextValue it contains resolves: a field path
// against the declaring type's (and, one hop through a relation, the
// related type's) field set, and a context claim against a declared
// context type.
func checkExprAgainstSubsystems(td *ast.TypeDecl, e access.Expr, fieldSets map[string]map[string]bool, st *symbolTable) exocore.CompileErrors {
	var errs exocore.CompileErrors
	var walk func(e access.Expr)
	var walkValue func(v access.Value)

	walkValue = func(v access.Value) {
		switch v := v.(type) {
		case access.FieldValue:
			owner := td.Name
			fields := fieldSets[owner]
			for _, hop := range v.RelationPath {
				if !fields[hop] {
					errs = append(errs, &exocore.CompileError{
						Span: td.Sp, Kind: exocore.KindType,
						Message: fmt.Sprintf("type %q: access expression relation path references unknown field %q", td.Name, hop),
					})
					return
				}
				rel := findField(td, hop)
				if rel == nil {
					return
				}
				owner = rel.Type.Name
				fields = fieldSets[owner]
			}
			if fields != nil && !fields[v.Field] {
				errs = append(errs, &exocore.CompileError{
					Span: td.Sp, Kind: exocore.KindType,
					Message: fmt.Sprintf("type %q: access expression references unknown field %q", owner, v.Field),
				})
			}
		case access.ContextValue:
			if _, ok := st.contexts[v.ContextName]; !ok {
				errs = append(errs, &exocore.CompileError{
					Span: td.Sp, Kind: exocore.KindType,
					Message: fmt.Sprintf("type %q: access expression references undeclared context %q", td.Name, v.ContextName),
				})
			}
		}
	}

	walk = func(e access.Expr) {
		switch e := e.(type) {
		case access.Cmp:
			walkValue(e.Left)
			walkValue(e.Right)
		case access.And:
			for _, o := range e.Operands {
				walk(o)
			}
		case access.Or:
			for _, o := range e.Operands {
				walk(o)
			}
		case access.Not:
			walk(e.Operand)
		case access.RelationSome:
			walk(e.Pred)
		case access.RelationAll:
			walk(e.Pred)
		}
	}

	if e != nil {
		walk(e)
	}
	return errs
}

func findField(td *ast.TypeDecl, name string) *ast.FieldDecl {
	for i := range td.Fields {
		if td.Fields[i].Name == name {
			return &td.Fields[i]
		}
	}
	return nil
}
