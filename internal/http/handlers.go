package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/article"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/reconcile"
)

// ReconcileRequest is the request body for POST /api/v1/reconcile.
type ReconcileRequest struct {
	Summary     string `json:"summary"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	MessageTS   string `json:"message_ts"`
	WorkspaceID string `json:"workspace_id"`
}

// ReconcileResponse is the response body for POST /api/v1/reconcile.
type ReconcileResponse struct {
	URL      string   `json:"url"`
	Number   int      `json:"number"`
	IsUpdate bool     `json:"is_update"`
	Path     string   `json:"path"`
	Branch   string   `json:"branch"`
	Redacted int      `json:"redacted"`
	RuleIDs  []string `json:"redacted_rules,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleReconcile(c echo.Context) error {
	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid reconcile request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.ChannelID) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "channel_id is required"})
	}

	ctx := logging.WithThread(c.Request().Context(), logging.Thread{
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		TS:          req.MessageTS,
	})

	resp := ReconcileResponse{}
	summary := req.Summary
	if s.scrubber != nil {
		scrubbed := s.scrubber.Scrub(ctx, summary)
		summary = scrubbed.Text
		resp.Redacted = len(scrubbed.Findings)
		resp.RuleIDs = scrubbed.RuleIDs()
	}

	workspace := req.WorkspaceID
	if workspace == "" {
		workspace = s.config.WorkspaceID
	}
	channelName := req.ChannelName
	if channelName == "" {
		channelName = req.ChannelID
	}

	// Two runs on one topic would both miss each other's unmerged branch
	// and open competing pull requests.
	unlock := s.topics.lock(reconcile.Slug(summary))
	defer unlock()

	result, err := s.reconciler.Reconcile(ctx, reconcile.Request{
		Summary:     summary,
		SourceURL:   article.SlackThreadLink(workspace, req.ChannelID, req.MessageTS),
		ChannelName: channelName,
		MessageTS:   req.MessageTS,
	})
	if err != nil {
		status := statusFor(err)
		s.logger.Warn(ctx, "reconcile request failed", zap.Int("status", status), zap.Error(err))
		return c.JSON(status, errorResponse(err))
	}

	resp.URL = result.URL
	resp.Number = result.Number
	resp.IsUpdate = result.IsUpdate
	resp.Path = result.Path
	resp.Branch = result.Branch
	return c.JSON(http.StatusOK, resp)
}
