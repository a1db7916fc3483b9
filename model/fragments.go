package model

import (
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/model/ast"
)

// expandFragments implements spec §4.1 phase 2: every "...Fragment"
// spread inside a type is replaced by the fragment's own fields,
// recursively (a fragment may itself spread another fragment). Two
// fields that resolve to the same name after expansion — whether one
// came from the type body and one from a spread, or both came from two
// different spreads — is a field-name collision and is reported rather
// than silently resolved by last-write-wins.
//
// It returns new TypeDecl values with Fields fully expanded; it never
// mutates the ast.File it was given.
func expandFragments(files []*ast.File) ([]*ast.TypeDecl, exocore.CompileErrors) {
	frags := map[string]*ast.FragmentDecl{}
	var types []*ast.TypeDecl

	collectDecls(files, frags, &types)

	var errs exocore.CompileErrors
	expanded := make([]*ast.TypeDecl, 0, len(types))
	for _, td := range types {
		seen := map[string]exocore.Span{}
		fields, ferrs := expandFieldList(td.Name, td.Fields, frags, seen, map[string]bool{})
		errs = append(errs, ferrs...)
		expanded = append(expanded, &ast.TypeDecl{
			Name:        td.Name,
			Annotations: td.Annotations,
			Fields:      fields,
			Sp:          td.Sp,
		})
	}
	return expanded, errs
}

func collectDecls(files []*ast.File, frags map[string]*ast.FragmentDecl, types *[]*ast.TypeDecl) {
	for _, f := range files {
		collectDeclList(f.Decls, frags, types)
	}
}

func collectDeclList(decls []ast.Decl, frags map[string]*ast.FragmentDecl, types *[]*ast.TypeDecl) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ModuleDecl:
			collectDeclList(d.Decls, frags, types)
		case *ast.TypeDecl:
			*types = append(*types, d)
		case *ast.FragmentDecl:
			frags[d.Name] = d
		}
	}
}

// expandFieldList inlines every spread in fields, reporting a
// field-name collision error for any two fields (direct or from two
// different spreads) that land on the same name. inStack guards
// against a fragment cycle (A spreads B spreads A).
func expandFieldList(owner string, fields []ast.FieldDecl, frags map[string]*ast.FragmentDecl, seen map[string]exocore.Span, inStack map[string]bool) ([]ast.FieldDecl, exocore.CompileErrors) {
	var out []ast.FieldDecl
	var errs exocore.CompileErrors

	for _, f := range fields {
		if !f.IsSpread() {
			if prior, dup := seen[f.Name]; dup {
				errs = append(errs, &exocore.CompileError{
					Span:    f.Sp,
					Kind:    exocore.KindFieldMerge,
					Message: fmt.Sprintf("type %q: field %q collides with a field already defined at %s", owner, f.Name, prior.String()),
				})
				continue
			}
			seen[f.Name] = f.Sp
			out = append(out, f)
			continue
		}

		frag, ok := frags[f.Spread]
		if !ok {
			errs = append(errs, &exocore.CompileError{
				Span:    f.Sp,
				Kind:    exocore.KindFieldMerge,
				Message: fmt.Sprintf("type %q: unknown fragment %q", owner, f.Spread),
			})
			continue
		}
		if inStack[f.Spread] {
			errs = append(errs, &exocore.CompileError{
				Span:    f.Sp,
				Kind:    exocore.KindFieldMerge,
				Message: fmt.Sprintf("type %q: fragment %q forms a spread cycle", owner, f.Spread),
			})
			continue
		}
		inStack[f.Spread] = true
		inlined, ferrs := expandFieldList(owner, frag.Fields, frags, seen, inStack)
		delete(inStack, f.Spread)
		errs = append(errs, ferrs...)
		out = append(out, inlined...)
	}

	return out, errs
}
