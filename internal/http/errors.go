package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/kbsync/internal/reconcile"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
	"github.com/fyrsmithlabs/kbsync/internal/summarize"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// statusFor maps a reconciliation error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrInvalidRequest), errors.Is(err, summarize.ErrEmptySummary):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, repository.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrRemoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: err.Error(),
		Stage: string(reconcile.StageOf(err)),
	}
	if reason := repository.Reason(err); reason != "unknown" {
		resp.Reason = reason
	}
	return resp
}
