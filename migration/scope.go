package migration

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/exocore-dev/exocore/sqlmodel"
)

// Scope restricts a diff to tables matching any of its glob patterns
// (spec §4.6 step 1, §6 "--scope pattern[,pattern...]"). A nil/empty
// Scope matches everything.
type Scope struct {
	Patterns []string
}

// ParseScope splits a comma-separated --scope flag value into patterns.
func ParseScope(flag string) Scope {
	if flag == "" {
		return Scope{}
	}
	var patterns []string
	start := 0
	for i := 0; i <= len(flag); i++ {
		if i == len(flag) || flag[i] == ',' {
			if i > start {
				patterns = append(patterns, flag[start:i])
			}
			start = i + 1
		}
	}
	return Scope{Patterns: patterns}
}

func (s Scope) matches(tableName string) bool {
	if len(s.Patterns) == 0 {
		return true
	}
	for _, p := range s.Patterns {
		if ok, err := filepath.Match(p, tableName); err == nil && ok {
			return true
		}
	}
	return false
}

func (s Scope) apply(schema *sqlmodel.Schema) *sqlmodel.Schema {
	if len(s.Patterns) == 0 {
		return schema
	}
	out := &sqlmodel.Schema{Name: schema.Name, Managed: schema.Managed, Enums: schema.Enums}
	for _, t := range schema.Tables {
		if s.matches(t.Name) {
			out.Tables = append(out.Tables, t)
		}
	}
	return out
}

// Partition splits s into one single-pattern Scope per pattern, so
// DiffConcurrent can diff independent --scope partitions in parallel.
func (s Scope) Partition() []Scope {
	if len(s.Patterns) == 0 {
		return []Scope{s}
	}
	parts := make([]Scope, len(s.Patterns))
	for i, p := range s.Patterns {
		parts[i] = Scope{Patterns: []string{p}}
	}
	return parts
}

// DiffConcurrent runs Diff once per partition of scope concurrently
// (spec's DOMAIN STACK note: golang.org/x/sync/errgroup runs independent
// schema-diff/introspection partitions in parallel, since unlike
// resolver's per-request statements, nothing here shares a transaction)
// and merges the resulting plans in partition order.
func DiffConcurrent(ctx context.Context, current, desired *sqlmodel.Schema, scope Scope, in Interactions, allowDestructive bool) (*Plan, error) {
	partitions := scope.Partition()
	plans := make([]*Plan, len(partitions))

	g, _ := errgroup.WithContext(ctx)
	for i, part := range partitions {
		i, part := i, part
		g.Go(func() error {
			p, err := Diff(current, desired, part, in, allowDestructive)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Plan{}
	for _, p := range plans {
		merged.Statements = append(merged.Statements, p.Statements...)
	}
	return merged, nil
}
