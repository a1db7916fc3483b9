package migration

import (
	"context"
	"fmt"

	"github.com/exocore-dev/exocore/sqlir"
)

// Applier runs a Plan's statements against a live database.
type Applier struct {
	DB *sqlir.Driver
}

// Apply runs every non-commented statement of plan inside one
// transaction, in plan order, rolling back on the first failure. A
// plan built without --allow-destructive-changes has its destructive
// statements pre-commented (Diff's job), so Apply never needs to ask
// again; it just skips whatever Commented already marked.
func (a *Applier) Apply(ctx context.Context, plan *Plan) error {
	tx, err := a.DB.Tx(ctx)
	if err != nil {
		return fmt.Errorf("migration: begin: %w", err)
	}
	for _, stmt := range plan.Statements {
		if stmt.Commented {
			continue
		}
		if err := tx.Exec(ctx, stmt.SQL, nil); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration: applying %s on %q: %w", stmt.Kind, stmt.Table, err)
		}
	}
	return tx.Commit()
}
