package main

import (
	"errors"
	"fmt"

	"github.com/exocore-dev/exocore"
)

// usageError marks a flag/config mistake (exit code 1).
type usageError struct{ error }

func usage(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// migrationIncompatibleError marks a migration plan the caller refused
// to apply (exit code 3): e.g. --apply-to-database on a destructive
// plan without --allow-destructive-changes.
type migrationIncompatibleError struct{ error }

func migrationIncompatible(format string, args ...any) error {
	return migrationIncompatibleError{fmt.Errorf(format, args...)}
}

// exitCodeFor maps a returned error to spec §6's exit codes: 0 ok; 1
// usage/config; 2 model error (line/column diagnostics); 3 migration
// incompatibility; 4 runtime fatal.
func exitCodeFor(err error) int {
	var (
		uerr usageError
		merr migrationIncompatibleError
		cerr exocore.CompileErrors
	)
	switch {
	case errors.As(err, &uerr):
		return 1
	case errors.As(err, &cerr):
		return 2
	case errors.As(err, &merr):
		return 3
	default:
		return 4
	}
}
