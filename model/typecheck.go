package model

import (
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/model/ast"
)

// annotationArgKinds lists, for each annotation the Postgres/access
// subsystems consume positionally, the expected ValueKind of its
// positional arguments. Phase 4 (type check/coercion) rejects a
// mismatch here rather than letting it surface later as a confusing
// panic or silent zero value inside pgschema.Builder.
var annotationArgKinds = map[string][]ast.ValueKind{
	"maxLength":       {ast.ValInt},
	"precision":       {ast.ValInt},
	"scale":           {ast.ValInt},
	"size":            {ast.ValInt},
	"bits16":          {},
	"bits32":          {},
	"bits64":          {},
	"singlePrecision": {},
	"pk":              {},
	"unique":          {},
	"readonly":        {},
}

// typeCheck implements phase 4: it checks annotation argument types
// against the fixed vocabulary above (spec §4.1 phase 4, "coercion" —
// in this DSL the only coercion checked here is annotation literal
// kinds, since field types are declared explicitly rather than
// inferred). @access / @precheck expression operands are checked later,
// by crossCheck (phase 6).
func typeCheck(types []*ast.TypeDecl, st *symbolTable) exocore.CompileErrors {
	var errs exocore.CompileErrors

	for _, td := range types {
		for _, f := range td.Fields {
			errs = append(errs, checkAnnotationArgs(td.Name, f.Annotations)...)
		}
		errs = append(errs, checkAnnotationArgs(td.Name, td.Annotations)...)
	}

	return errs
}

func checkAnnotationArgs(owner string, anns []ast.Annotation) exocore.CompileErrors {
	var errs exocore.CompileErrors
	for _, ann := range anns {
		expect, known := annotationArgKinds[ann.Name]
		if !known {
			continue
		}
		for i, arg := range ann.Args {
			if arg.Name != "" {
				continue // named args are validated where they're consumed
			}
			if i >= len(expect) {
				errs = append(errs, &exocore.CompileError{
					Span: arg.Sp, Kind: exocore.KindType,
					Message: fmt.Sprintf("type %q: @%s takes at most %d positional argument(s)", owner, ann.Name, len(expect)),
				})
				continue
			}
			if arg.Value.Kind != expect[i] {
				errs = append(errs, &exocore.CompileError{
					Span: arg.Sp, Kind: exocore.KindType,
					Message: fmt.Sprintf("type %q: @%s argument %d has the wrong kind", owner, ann.Name, i),
				})
			}
		}
	}
	return errs
}
