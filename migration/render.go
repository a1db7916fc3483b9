package migration

import (
	"fmt"
	"strings"

	atlasschema "ariga.io/atlas/sql/schema"
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualifiedTable(t *atlasschema.Table) string {
	if t.Schema != nil && t.Schema.Name != "" && t.Schema.Name != "public" {
		return quoteIdent(t.Schema.Name) + "." + quoteIdent(t.Name)
	}
	return quoteIdent(t.Name)
}

func columnDefSQL(c *atlasschema.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(c.Name))
	b.WriteByte(' ')
	b.WriteString(c.Type.Raw)
	if !c.Type.Null {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		if expr, ok := c.Default.(*atlasschema.RawExpr); ok {
			b.WriteString(" DEFAULT ")
			b.WriteString(expr.X)
		}
	}
	return b.String()
}

func createTableSQL(t *atlasschema.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", qualifiedTable(t))
	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+columnDefSQL(c))
	}
	if t.PrimaryKey != nil {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", indexPartCols(t.PrimaryKey)))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, "  "+foreignKeyClause(fk))
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

func indexPartCols(idx *atlasschema.Index) string {
	names := make([]string, 0, len(idx.Parts))
	for _, p := range idx.Parts {
		if p.C != nil {
			names = append(names, quoteIdent(p.C.Name))
		}
	}
	return strings.Join(names, ", ")
}

func createIndexSQL(t *atlasschema.Table, idx *atlasschema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, quoteIdent(idx.Name), qualifiedTable(t), indexPartCols(idx))
}

func foreignKeyClause(fk *atlasschema.ForeignKey) string {
	cols := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		cols[i] = quoteIdent(c.Name)
	}
	refCols := make([]string, len(fk.RefColumns))
	for i, c := range fk.RefColumns {
		refCols[i] = quoteIdent(c.Name)
	}
	clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", strings.Join(cols, ", "), qualifiedTable(fk.RefTable), strings.Join(refCols, ", "))
	if fk.Symbol != "" {
		clause = fmt.Sprintf("CONSTRAINT %s %s", quoteIdent(fk.Symbol), clause)
	}
	if fk.OnDelete != "" {
		clause += " ON DELETE " + string(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		clause += " ON UPDATE " + string(fk.OnUpdate)
	}
	return clause
}

func addForeignKeySQL(t *atlasschema.Table, fk *atlasschema.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s", qualifiedTable(t), foreignKeyClause(fk))
}

func setDefaultSQL(t *atlasschema.Table, c *atlasschema.Column) string {
	if c.Default == nil {
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qualifiedTable(t), quoteIdent(c.Name))
	}
	expr, ok := c.Default.(*atlasschema.RawExpr)
	if !ok {
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qualifiedTable(t), quoteIdent(c.Name))
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qualifiedTable(t), quoteIdent(c.Name), expr.X)
}
