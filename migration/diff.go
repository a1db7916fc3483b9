package migration

import (
	"fmt"
	"sort"
	"strings"

	"ariga.io/atlas/sql/postgres"
	atlasschema "ariga.io/atlas/sql/schema"

	"github.com/exocore-dev/exocore/sqlmodel"
)

// Diff compares current (the live database's actual shape) against
// desired (the compiled model's shape) and returns an ordered Plan,
// restricted to scope and informed by in (spec §4.6 steps 1-2).
// allowDestructive controls whether drop/narrow statements are emitted
// live or commented out (step 6).
func Diff(current, desired *sqlmodel.Schema, scope Scope, in Interactions, allowDestructive bool) (*Plan, error) {
	current = scope.apply(current)
	desired = scope.apply(desired)

	fromTables, toTables := applyRenames(current, desired, in)

	changes, err := postgres.DefaultDiff.SchemaDiff(toAtlasSchema(fromTables), toAtlasSchema(toTables))
	if err != nil {
		return nil, fmt.Errorf("migration: diff: %w", err)
	}

	breaking := sqlmodel.ValidateDiff(current.Tables, desired.Tables)

	plan := &Plan{}
	for _, c := range changes {
		stmts := lowerChange(c)
		for _, s := range stmts {
			if s.Destructive && !allowDestructive {
				s.Commented = true
			}
			plan.Statements = append(plan.Statements, s)
		}
	}
	orderStatements(plan)
	annotateBreaking(plan, breaking)
	return plan, nil
}

// applyRenames rewrites current's table names per the interaction hints
// so the diff sees a rename instead of an unrelated drop+add pair (spec
// §4.6 step 2).
func applyRenames(current, desired *sqlmodel.Schema, in Interactions) (*sqlmodel.Schema, *sqlmodel.Schema) {
	if len(in.RenameTables) == 0 {
		return current, desired
	}
	renamed := &sqlmodel.Schema{Name: current.Name, Managed: current.Managed, Enums: current.Enums}
	for _, t := range current.Tables {
		if newName, ok := in.renameTo(t.Name); ok {
			cp := *t
			cp.Name = newName
			renamed.Tables = append(renamed.Tables, &cp)
			continue
		}
		renamed.Tables = append(renamed.Tables, t)
	}
	return renamed, desired
}

// annotateBreaking marks every destructive statement touching a table
// sqlmodel.ValidateDiff flagged as a breaking change, so a caller can
// tell "drop you already knew about" from "drop we just noticed".
// ValidateDiff's verdict doesn't change whether the statement runs
// (allowDestructive already decided that); it only enriches Statement.SQL
// with a comment a human reviewing a migration file would want.
func annotateBreaking(plan *Plan, result *sqlmodel.ValidationResult) {
	if result == nil || !result.HasErrors() {
		return
	}
	flagged := map[string]bool{}
	for _, e := range result.Errors {
		flagged[e.Table] = true
	}
	for i, s := range plan.Statements {
		if s.Destructive && flagged[s.Table] && !strings.Contains(s.SQL, "-- breaking:") {
			plan.Statements[i].SQL = s.SQL + " -- breaking: " + breakingReason(result, s.Table)
		}
	}
}

func breakingReason(result *sqlmodel.ValidationResult, table string) string {
	for _, e := range result.Errors {
		if e.Table == table {
			return e.Message
		}
	}
	return "unreviewed schema change"
}

func lowerChange(c atlasschema.Change) []Statement {
	switch c := c.(type) {
	case *atlasschema.AddSchema:
		return []Statement{{Kind: CreateSchema, SQL: fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(c.S.Name))}}
	case *atlasschema.DropSchema:
		return []Statement{{Kind: DropSchema, SQL: fmt.Sprintf("DROP SCHEMA %s", quoteIdent(c.S.Name)), Destructive: true}}
	case *atlasschema.AddTable:
		return []Statement{{Kind: CreateTable, Table: c.T.Name, SQL: createTableSQL(c.T)}}
	case *atlasschema.DropTable:
		return []Statement{{Kind: DropTable, Table: c.T.Name, SQL: fmt.Sprintf("DROP TABLE %s", qualifiedTable(c.T)), Destructive: true}}
	case *atlasschema.RenameTable:
		return []Statement{{Kind: RenameTable, Table: c.To.Name, SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", qualifiedTable(c.From), quoteIdent(c.To.Name))}}
	case *atlasschema.ModifyTable:
		var stmts []Statement
		for _, inner := range c.Changes {
			stmts = append(stmts, lowerTableChange(c.T, inner)...)
		}
		return stmts
	default:
		return nil
	}
}

func lowerTableChange(t *atlasschema.Table, c atlasschema.Change) []Statement {
	switch c := c.(type) {
	case *atlasschema.AddColumn:
		return []Statement{{Kind: AddColumn, Table: t.Name, SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qualifiedTable(t), columnDefSQL(c.C))}}
	case *atlasschema.DropColumn:
		return []Statement{{Kind: DropColumn, Table: t.Name, SQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualifiedTable(t), quoteIdent(c.C.Name)), Destructive: true}}
	case *atlasschema.RenameColumn:
		return []Statement{{Kind: RenameColumn, Table: t.Name, SQL: fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", qualifiedTable(t), quoteIdent(c.From.Name), quoteIdent(c.To.Name))}}
	case *atlasschema.ModifyColumn:
		return lowerModifyColumn(t, c)
	case *atlasschema.AddIndex:
		return []Statement{{Kind: CreateIndex, Table: t.Name, SQL: createIndexSQL(t, c.I)}}
	case *atlasschema.DropIndex:
		return []Statement{{Kind: DropIndex, Table: t.Name, SQL: fmt.Sprintf("DROP INDEX %s", quoteIdent(c.I.Name)), Destructive: true}}
	case *atlasschema.AddPrimaryKey:
		return []Statement{{Kind: CreatePK, Table: t.Name, SQL: fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)", qualifiedTable(t), quoteIdent(c.P.Name), indexPartCols(c.P))}}
	case *atlasschema.DropPrimaryKey:
		return []Statement{{Kind: DropPK, Table: t.Name, SQL: fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualifiedTable(t), quoteIdent(c.P.Name)), Destructive: true}}
	case *atlasschema.AddForeignKey:
		return []Statement{{Kind: CreateFK, Table: t.Name, SQL: addForeignKeySQL(t, c.F)}}
	case *atlasschema.DropForeignKey:
		return []Statement{{Kind: DropFK, Table: t.Name, SQL: fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualifiedTable(t), quoteIdent(c.F.Symbol)), Destructive: true}}
	default:
		return nil
	}
}

func lowerModifyColumn(t *atlasschema.Table, c *atlasschema.ModifyColumn) []Statement {
	var stmts []Statement
	if c.Change.Is(atlasschema.ChangeType) {
		stmts = append(stmts, Statement{
			Kind: AlterColumnType, Table: t.Name, Destructive: isNarrowing(c.From, c.To),
			SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", qualifiedTable(t), quoteIdent(c.To.Name), c.To.Type.Raw),
		})
	}
	if c.Change.Is(atlasschema.ChangeNull) {
		verb := "SET NOT NULL"
		destructive := true
		if c.To.Type.Null {
			verb = "DROP NOT NULL"
			destructive = false
		}
		stmts = append(stmts, Statement{
			Kind: AlterColumnNullability, Table: t.Name, Destructive: destructive,
			SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", qualifiedTable(t), quoteIdent(c.To.Name), verb),
		})
	}
	if c.Change.Is(atlasschema.ChangeDefault) {
		stmts = append(stmts, Statement{Kind: SetDefault, Table: t.Name, SQL: setDefaultSQL(t, c.To)})
	}
	return stmts
}

// isNarrowing reports whether a type change reduces declared
// precision/length, the kind of change spec §4.6 step 6 calls out as
// destructive even though it isn't a drop.
func isNarrowing(from, to *atlasschema.Column) bool {
	fromSize, toSize := rawSize(from.Type.Raw), rawSize(to.Type.Raw)
	return toSize > 0 && fromSize > 0 && toSize < fromSize
}

func rawSize(raw string) int {
	open, close := strings.Index(raw, "("), strings.Index(raw, ")")
	if open < 0 || close < open {
		return 0
	}
	n := 0
	for _, r := range raw[open+1 : close] {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// orderStatements applies spec §4.6's ordering: additive changes before
// modifications before destructive drops, schema-level statements
// wrapping the whole plan, views/sequences last. Within equal priority,
// the diff's own emission order (topologically FK-safe: it never
// creates a table before the tables its FKs target) is preserved.
func orderStatements(p *Plan) {
	priority := func(k Kind) int {
		switch k {
		case CreateSchema:
			return 0
		case CreateTable:
			return 1
		case AddColumn, RenameTable, RenameColumn:
			return 2
		case CreatePK:
			return 3
		case AlterColumnType, AlterColumnNullability, SetDefault:
			return 4
		case CreateFK:
			return 5
		case CreateIndex:
			return 6
		case CreateView:
			return 14
		case DropIndex:
			return 8
		case DropFK:
			return 9
		case DropPK:
			return 10
		case DropColumn:
			return 11
		case DropTable:
			return 12
		case DropSchema:
			return 13
		default:
			return 99
		}
	}
	sort.SliceStable(p.Statements, func(i, j int) bool {
		return priority(p.Statements[i].Kind) < priority(p.Statements[j].Kind)
	})
}
