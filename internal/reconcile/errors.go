package reconcile

import (
	"errors"
	"fmt"
)

// Stage names a step of a reconciliation run.
type Stage string

const (
	StageLocate  Stage = "locate"
	StageBranch  Stage = "branch"
	StageContent Stage = "content"
	StageWrite   Stage = "write"
	StagePR      Stage = "pr"
)

// ErrInvalidRequest is returned for requests rejected before any remote
// call is made.
var ErrInvalidRequest = errors.New("invalid reconcile request")

// StageError reports the stage at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("reconcile %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage err failed at, or "" if err is not a
// *StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
