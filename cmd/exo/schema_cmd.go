package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exocore-dev/exocore/migration"
	"github.com/exocore-dev/exocore/sqlir"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// schemaCmd groups the migration CLI spec §6 names: "schema
// create|verify|migrate|import with flags --database URL, --scope
// pattern[,pattern...], --allow-destructive-changes,
// --apply-to-database, --interactions FILE, --output FILE,
// --non-interactive".
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Diff, verify, migrate or import the database schema",
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

// schemaFlags holds the flag set every schema subcommand shares.
// nonInteractive is accepted for command-line compatibility with spec
// §6's flag set; this CLI never prompts (there is no terminal prompt
// loop to suppress), so every run already behaves as if it were set.
type schemaFlags struct {
	database         string
	modelDir         string
	scope            string
	allowDestructive bool
	applyToDatabase  bool
	interactions     string
	output           string
	nonInteractive   bool
}

func addSchemaFlags(cmd *cobra.Command, f *schemaFlags) {
	cmd.Flags().StringVarP(&f.database, "database", "d", "", "Postgres connection URL (defaults to EXO_POSTGRES_URL/DATABASE_URL)")
	cmd.Flags().StringVar(&f.modelDir, "model-dir", ".", "directory of .exo model source files")
	cmd.Flags().StringVar(&f.scope, "scope", "", "comma-separated table glob patterns restricting the diff")
	cmd.Flags().BoolVar(&f.allowDestructive, "allow-destructive-changes", false, "emit destructive statements live instead of commented out")
	cmd.Flags().BoolVar(&f.applyToDatabase, "apply-to-database", false, "apply the resulting plan to --database instead of just printing it")
	cmd.Flags().StringVar(&f.interactions, "interactions", "", "TOML file of [[rename-table]] hints")
	cmd.Flags().StringVar(&f.output, "output", "", "write the plan to this file instead of stdout")
	cmd.Flags().BoolVar(&f.nonInteractive, "non-interactive", false, "accepted for compatibility; has no effect, since this CLI never prompts")
}

func (f *schemaFlags) resolveDatabase() (string, error) {
	if f.database != "" {
		return f.database, nil
	}
	cfg, err := loadConfig(".")
	if err != nil {
		return "", err
	}
	if cfg.PostgresURL == "" {
		return "", usage("no --database given and EXO_POSTGRES_URL/DATABASE_URL is unset")
	}
	return cfg.PostgresURL, nil
}

func (f *schemaFlags) loadInteractions() (migration.Interactions, error) {
	if f.interactions == "" {
		return migration.Interactions{}, nil
	}
	data, err := os.ReadFile(f.interactions)
	if err != nil {
		return migration.Interactions{}, err
	}
	return migration.ParseInteractions(string(data))
}

func (f *schemaFlags) writePlan(plan *migration.Plan) error {
	out := os.Stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	for _, stmt := range plan.Statements {
		fmt.Fprintln(out, stmt.Rendered()+";")
	}
	return nil
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Print the statements needed to create the model's schema from scratch",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := schemaCreateFlags
		m, err := loadModel(f.modelDir, "public")
		if err != nil {
			return err
		}
		scope := migration.ParseScope(f.scope)
		in, err := f.loadInteractions()
		if err != nil {
			return err
		}
		current := &sqlmodel.Schema{Name: m.Schema.Name}
		plan, err := migration.Diff(current, m.Schema, scope, in, f.allowDestructive)
		if err != nil {
			return err
		}
		if f.applyToDatabase {
			return applyPlan(cmd.Context(), f, plan)
		}
		return f.writePlan(plan)
	},
}

var schemaVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Diff the live database against the model and fail if they differ",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := schemaVerifyFlags
		plan, err := diffAgainstDatabase(cmd.Context(), f)
		if err != nil {
			return err
		}
		if err := f.writePlan(plan); err != nil {
			return err
		}
		if len(plan.Statements) > 0 {
			return migrationIncompatible("schema verify: %d statement(s) needed to reconcile the database with the model", len(plan.Statements))
		}
		return nil
	},
}

var schemaMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Diff the live database against the model and optionally apply the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := schemaMigrateFlags
		plan, err := diffAgainstDatabase(cmd.Context(), f)
		if err != nil {
			return err
		}
		if f.applyToDatabase {
			return applyPlan(cmd.Context(), f, plan)
		}
		return f.writePlan(plan)
	},
}

var schemaImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Introspect the live database and print the DDL that reconstructs it",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := schemaImportFlags
		dsn, err := f.resolveDatabase()
		if err != nil {
			return err
		}
		db, err := sqlir.Open(dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		live, err := migration.Introspect(cmd.Context(), db, "public")
		if err != nil {
			return err
		}
		empty := &sqlmodel.Schema{Name: live.Name}
		plan, err := migration.Diff(empty, live, migration.ParseScope(f.scope), migration.Interactions{}, true)
		if err != nil {
			return err
		}
		return f.writePlan(plan)
	},
}

var (
	schemaCreateFlags  = &schemaFlags{}
	schemaVerifyFlags  = &schemaFlags{}
	schemaMigrateFlags = &schemaFlags{}
	schemaImportFlags  = &schemaFlags{}
)

func init() {
	addSchemaFlags(schemaCreateCmd, schemaCreateFlags)
	addSchemaFlags(schemaVerifyCmd, schemaVerifyFlags)
	addSchemaFlags(schemaMigrateCmd, schemaMigrateFlags)
	addSchemaFlags(schemaImportCmd, schemaImportFlags)
	schemaCmd.AddCommand(schemaCreateCmd, schemaVerifyCmd, schemaMigrateCmd, schemaImportCmd)
}

// diffAgainstDatabase compiles the model, introspects --database, and
// diffs the two (spec §4.6 steps 1-6), the shared core of `schema
// verify` and `schema migrate`.
func diffAgainstDatabase(ctx context.Context, f *schemaFlags) (*migration.Plan, error) {
	m, err := loadModel(f.modelDir, "public")
	if err != nil {
		return nil, err
	}
	dsn, err := f.resolveDatabase()
	if err != nil {
		return nil, err
	}
	db, err := sqlir.Open(dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	live, err := migration.Introspect(ctx, db, m.Schema.Name)
	if err != nil {
		return nil, err
	}
	in, err := f.loadInteractions()
	if err != nil {
		return nil, err
	}
	return migration.DiffConcurrent(ctx, live, m.Schema, migration.ParseScope(f.scope), in, f.allowDestructive)
}

func applyPlan(ctx context.Context, f *schemaFlags, plan *migration.Plan) error {
	if plan.Destructive() && !f.allowDestructive {
		return migrationIncompatible("refusing to apply a destructive plan without --allow-destructive-changes")
	}
	dsn, err := f.resolveDatabase()
	if err != nil {
		return err
	}
	db, err := sqlir.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	applier := &migration.Applier{DB: db}
	return applier.Apply(ctx, plan)
}
