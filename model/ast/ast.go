package ast

import "github.com/exocore-dev/exocore"

// File is the root of one parsed source file: a flat list of top-level
// declarations in source order.
type File struct {
	Path  string
	Decls []Decl
}

// Decl is any top-level declaration: module, type, fragment, enum, or
// context.
type Decl interface {
	declNode()
	Span() exocore.Span
}

// ModuleDecl groups a set of type/fragment/enum/context declarations
// under one deployment unit ("module Todo { ... }"), carrying the
// module-level annotations (@postgres, @deno, @wasm, @access).
type ModuleDecl struct {
	Name        string
	Annotations []Annotation
	Decls       []Decl
	Sp          exocore.Span
}

func (*ModuleDecl) declNode()            {}
func (d *ModuleDecl) Span() exocore.Span { return d.Sp }

// TypeDecl is a "type Todo { ... }" declaration: a logical type with
// its fields and type-level annotations.
type TypeDecl struct {
	Name        string
	Annotations []Annotation
	Fields      []FieldDecl
	Sp          exocore.Span
}

func (*TypeDecl) declNode()            {}
func (d *TypeDecl) Span() exocore.Span { return d.Sp }

// FragmentDecl is a reusable field set ("fragment Timestamped { ... }")
// pulled into a type via "...Timestamped".
type FragmentDecl struct {
	Name   string
	Fields []FieldDecl
	Sp     exocore.Span
}

func (*FragmentDecl) declNode()            {}
func (d *FragmentDecl) Span() exocore.Span { return d.Sp }

// EnumDecl is a Postgres enum type ("enum Status { ACTIVE DONE }").
type EnumDecl struct {
	Name        string
	Values      []string
	Annotations []Annotation
	Sp          exocore.Span
}

func (*EnumDecl) declNode()            {}
func (d *EnumDecl) Span() exocore.Span { return d.Sp }

// ContextDecl declares a request-scoped context type ("context
// AuthContext { ... }") whose fields are populated from request
// sources (JWT claims, headers, cookies) rather than from the
// database.
type ContextDecl struct {
	Name   string
	Fields []ContextFieldDecl
	Sp     exocore.Span
}

func (*ContextDecl) declNode()            {}
func (d *ContextDecl) Span() exocore.Span { return d.Sp }

// ContextFieldDecl is one field of a context declaration, sourced via
// an annotation such as @jwt("sub") or @header("X-Tenant-Id").
type ContextFieldDecl struct {
	Name        string
	Type        TypeRef
	Annotations []Annotation
	Sp          exocore.Span
}

func (f ContextFieldDecl) Span() exocore.Span { return f.Sp }

// FieldDecl is one field of a type or fragment.
type FieldDecl struct {
	// Name is empty and Spread is non-empty for a "...Fragment" spread.
	Name        string
	Spread      string
	Type        TypeRef
	Annotations []Annotation
	Sp          exocore.Span
}

func (f FieldDecl) Span() exocore.Span { return f.Sp }

// IsSpread reports whether this FieldDecl is a fragment spread rather
// than a named field.
func (f FieldDecl) IsSpread() bool { return f.Spread != "" }

// TypeRef is a reference to a type in field/argument position: a base
// name plus optionality/array modifiers (e.g. "Comment[]?", "String!").
type TypeRef struct {
	Name     string
	Array    bool
	Optional bool
	Sp       exocore.Span
}

func (t TypeRef) Span() exocore.Span { return t.Sp }

// Annotation is one "@name" or "@name(args...)" attached to a module,
// type, field, or enum.
type Annotation struct {
	Name string
	Args []AnnotationArg
	Sp   exocore.Span
}

func (a Annotation) Span() exocore.Span { return a.Sp }

// Arg looks up a positional-or-named argument by name; ok is false if
// no such argument was given.
func (a Annotation) Arg(name string) (AnnotationArg, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return AnnotationArg{}, false
}

// AnnotationArg is one argument to an annotation. Name is empty for a
// positional argument (e.g. the "name" in @column("email")); it is set
// for a named argument (e.g. "schema" in @table("users", schema="auth")).
type AnnotationArg struct {
	Name  string
	Value Value
	Sp    exocore.Span
}

func (a AnnotationArg) Span() exocore.Span { return a.Sp }

// ValueKind discriminates the Value sum type.
type ValueKind uint8

const (
	ValString ValueKind = iota
	ValInt
	ValFloat
	ValBool
	ValIdent // a bare identifier, e.g. a role name or an @access expression token
	ValExpr  // a parenthesized access-control expression, carried as unparsed source text for phase-6 parsing
	ValList
)

// Value is a literal or nested expression appearing as an annotation
// argument.
type Value struct {
	Kind  ValueKind
	Str   string  // ValString, ValIdent, ValExpr (raw source text)
	Int   int64   // ValInt
	Float float64 // ValFloat
	Bool  bool    // ValBool
	List  []Value // ValList
	Sp    exocore.Span
}

func (v Value) Span() exocore.Span { return v.Sp }
