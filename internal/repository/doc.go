// Package repository defines the operations the reconciler needs from a
// hosted git repository, and the error taxonomy they fail with.
//
// Implementations wrap every failure in an *OpError carrying the operation
// name and one of the sentinel kinds, so callers branch with errors.Is:
//
//	entries, err := repo.ListFiles(ctx, "knowledge-base", "main")
//	switch {
//	case errors.Is(err, repository.ErrNotFound):
//	    // directory absent: no articles yet
//	case err != nil:
//	    return err
//	}
//
// # Implementations
//
// The GitHub implementation lives in internal/github. Memory is an
// in-process implementation used by tests and local experiments. DryRun
// wraps any Repository and turns every mutating call into a no-op while
// still serving reads.
package repository
