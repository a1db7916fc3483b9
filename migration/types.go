// Package migration is the migration engine described in spec §4.6
// (component C7): it diffs two sqlmodel.Schema snapshots (the compiled
// model's desired shape and a live database's actual shape), emits an
// ordered list of DDL statements, and optionally applies them.
package migration

// Kind enumerates the statement forms spec §4.6 names.
type Kind uint8

const (
	CreateSchema Kind = iota
	CreateTable
	AddColumn
	AlterColumnType
	AlterColumnNullability
	SetDefault
	CreatePK
	CreateFK
	CreateIndex
	CreateView
	DropIndex
	DropFK
	DropPK
	DropColumn
	DropTable
	DropSchema
	RenameTable
	RenameColumn
)

func (k Kind) String() string {
	switch k {
	case CreateSchema:
		return "CreateSchema"
	case CreateTable:
		return "CreateTable"
	case AddColumn:
		return "AddColumn"
	case AlterColumnType:
		return "AlterColumnType"
	case AlterColumnNullability:
		return "AlterColumnNullability"
	case SetDefault:
		return "SetDefault"
	case CreatePK:
		return "CreatePK"
	case CreateFK:
		return "CreateFK"
	case CreateIndex:
		return "CreateIndex"
	case CreateView:
		return "CreateView"
	case DropIndex:
		return "DropIndex"
	case DropFK:
		return "DropFK"
	case DropPK:
		return "DropPK"
	case DropColumn:
		return "DropColumn"
	case DropTable:
		return "DropTable"
	case DropSchema:
		return "DropSchema"
	case RenameTable:
		return "RenameTable"
	case RenameColumn:
		return "RenameColumn"
	default:
		return "Unknown"
	}
}

// Destructive reports whether a statement of this kind drops or narrows
// data by default, per spec §4.6 "destructive items ... are commented
// out unless --allow-destructive-changes is passed".
func (k Kind) Destructive() bool {
	switch k {
	case DropIndex, DropFK, DropPK, DropColumn, DropTable, DropSchema, AlterColumnType, AlterColumnNullability:
		return true
	default:
		return false
	}
}

// Statement is one DDL operation in the plan.
type Statement struct {
	Kind        Kind
	Table       string
	SQL         string
	Destructive bool
	// Commented is true when Destructive and the plan was built without
	// --allow-destructive-changes: the statement is emitted as a SQL
	// comment instead of executable DDL.
	Commented bool
}

// Rendered is the statement text actually written to a migration file
// or sent to the database: the live SQL when Commented is false, a
// "-- " prefixed comment otherwise.
func (s Statement) Rendered() string {
	if s.Commented {
		return "-- " + s.SQL
	}
	return s.SQL
}

// Plan is the ordered output of Diff: additive statements first,
// modifications next, destructive statements last (spec §4.6 step 4:
// "constraints and indices are dropped before column drops and created
// after column adds").
type Plan struct {
	Statements []Statement
}

// Destructive reports whether any statement in the plan is destructive.
func (p *Plan) Destructive() bool {
	for _, s := range p.Statements {
		if s.Destructive {
			return true
		}
	}
	return false
}

// TableRename is one user-supplied table-rename interaction (spec §6
// "Interaction TOML: tables [[rename-table]] with old-table, new-table").
type TableRename struct {
	OldTable string
	NewTable string
}

// Interactions holds the user-supplied hints the diff procedure
// consults before treating a dropped+added pair as two independent
// changes (spec §4.6 step 2).
type Interactions struct {
	RenameTables []TableRename
}

// renameTo returns the new name a table was renamed to, if any.
func (in Interactions) renameTo(oldName string) (string, bool) {
	for _, r := range in.RenameTables {
		if r.OldTable == oldName {
			return r.NewTable, true
		}
	}
	return "", false
}
