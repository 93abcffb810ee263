package github

import (
	"context"
	"errors"
	"net/http"

	gh "github.com/google/go-github/v57/github"

	"github.com/fyrsmithlabs/kbsync/internal/repository"
)

// classify wraps a failed API call in a repository.OpError carrying the
// taxonomy kind that matches the response.
func classify(op, path string, resp *gh.Response, err error) error {
	return repository.NewOpError(op, path, kindOf(op, resp, err), err)
}

func kindOf(op string, resp *gh.Response, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if isRateLimited(err, resp) {
		return repository.ErrRemoteUnavailable
	}

	switch code := statusCode(resp); {
	case code == 0:
		return repository.ErrRemoteUnavailable
	case code == http.StatusNotFound:
		return repository.ErrNotFound
	case code == http.StatusConflict:
		return repository.ErrConflict
	case code == http.StatusUnprocessableEntity:
		// GitHub reports "Reference already exists" and "A pull request
		// already exists" as validation failures. For contents writes a
		// 422 means the sha did not match the file.
		if op == repository.OpCreateBranch || op == repository.OpCreatePullRequest {
			return repository.ErrAlreadyExists
		}
		return repository.ErrConflict
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return repository.ErrPermissionDenied
	case code >= 500:
		return repository.ErrRemoteUnavailable
	default:
		return nil
	}
}
