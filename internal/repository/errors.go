package repository

import (
	"context"
	"errors"
	"fmt"
)

// Taxonomy of remote failures. Implementations wrap these so callers can
// use errors.Is regardless of the backing service.
var (
	// ErrNotFound means the file, directory or branch does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a write raced with another change to the same file.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists means a branch or pull request already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrPermissionDenied means the credentials lack access.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRemoteUnavailable means the remote could not be reached or failed
	// on its side (timeouts, 5xx, rate limits).
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// Operation names used in OpError.
const (
	OpDefaultBranch     = "default_branch"
	OpHeadCommit        = "head_commit"
	OpListFiles         = "list_files"
	OpReadFile          = "read_file"
	OpCreateBranch      = "create_branch"
	OpWriteFile         = "write_file"
	OpCreatePullRequest = "create_pull_request"
)

// OpError records which remote operation failed and on what.
type OpError struct {
	Op   string // One of the Op* constants
	Path string // File, directory, branch or ref the operation targeted
	Kind error  // Taxonomy sentinel, nil when unclassified
	Err  error  // Underlying error
}

// NewOpError classifies err under kind for operation op on path.
func NewOpError(op, path string, kind, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// Error implements the error interface
func (e *OpError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	switch {
	case e.Kind != nil && e.Err != nil && e.Err != e.Kind:
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
}

// Unwrap exposes both the taxonomy sentinel and the cause.
func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil && e.Err != e.Kind {
		errs = append(errs, e.Err)
	}
	return errs
}

// Reason returns a short, bounded label for err, suitable for metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	default:
		return "unknown"
	}
}
