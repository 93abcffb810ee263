package repository

import (
	"context"
	"fmt"
)

// DryRun passes reads through to a Repository and turns every write into
// a no-op. Reconciling against it computes the exact document a real run
// would commit without touching the remote.
type DryRun struct {
	Repository
}

var _ Repository = DryRun{}

// NewDryRun wraps repo.
func NewDryRun(repo Repository) DryRun {
	return DryRun{Repository: repo}
}

// CreateBranch does nothing.
func (DryRun) CreateBranch(context.Context, string, string) error {
	return nil
}

// WriteFile returns a placeholder commit ID.
func (DryRun) WriteFile(_ context.Context, req WriteRequest) (string, error) {
	return "dry-run:" + req.Branch, nil
}

// CreatePullRequest returns a pull request with a descriptive URL and
// number 0.
func (DryRun) CreatePullRequest(_ context.Context, req PullRequestRequest) (*PullRequest, error) {
	return &PullRequest{URL: fmt.Sprintf("dry-run://%s...%s", req.Base, req.Head)}, nil
}
