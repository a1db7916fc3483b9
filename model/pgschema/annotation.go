// Package pgschema is the Postgres builder for the model compiler
// (spec §4.1 phase "Subsystem dispatch", the @postgres subsystem): it
// turns a compiled model type's fields and annotations into a
// sqlmodel.Schema (component C1), deriving table/column names,
// primary keys, uniqueness, relations, and physical types from the
// DSL's @table/@column/@pk/@unique/@index/@relation annotation
// vocabulary (spec §6).
package pgschema

// TableOverride mirrors @table(name?, schema?, managed?).
type TableOverride struct {
	Name    string
	Schema  string
	Managed bool
	// ManagedSet distinguishes "managed not given" (defaults to true)
	// from an explicit "managed = false" (unmanaged/view table, spec
	// glossary "Managed table").
	ManagedSet bool
}
