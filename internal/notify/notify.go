package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/logging"
)

// Target says where to report one run. Empty fields are skipped.
type Target struct {
	// ResponseURL is the Slack interaction response_url.
	ResponseURL string
	// MessageLink is appended to Slack replies.
	MessageLink string
	// StepSummaryPath is the file named by GITHUB_STEP_SUMMARY.
	StepSummaryPath string
}

// TargetFromEnv reads SLACK_RESPONSE_URL and GITHUB_STEP_SUMMARY.
func TargetFromEnv(messageLink string) Target {
	return Target{
		ResponseURL:     os.Getenv("SLACK_RESPONSE_URL"),
		MessageLink:     messageLink,
		StepSummaryPath: os.Getenv("GITHUB_STEP_SUMMARY"),
	}
}

type reply struct {
	Text            string `json:"text"`
	ReplaceOriginal bool   `json:"replace_original"`
	ResponseType    string `json:"response_type"`
}

// Notifier delivers run outcomes. Delivery failures are logged and never
// returned from Succeeded or Failed.
type Notifier struct {
	client *http.Client
	out    io.Writer
	log    *logging.Logger
}

// New creates a Notifier writing machine-readable lines to out.
func New(out io.Writer, timeout time.Duration, log *logging.Logger) *Notifier {
	if log == nil {
		log = logging.NewNop()
	}
	return &Notifier{
		client: &http.Client{Timeout: timeout},
		out:    out,
		log:    log.Named("notify"),
	}
}

// Succeeded reports a created pull request.
func (n *Notifier) Succeeded(ctx context.Context, t Target, messages int, prURL string) {
	if n.out != nil {
		fmt.Fprintf(n.out, "PR_URL=%s\n", prURL)
	}
	n.reply(ctx, t, SuccessText(messages, prURL))

	if t.StepSummaryPath != "" {
		if err := AppendStepSummary(t.StepSummaryPath, prURL); err != nil {
			n.log.Warn(ctx, "failed to write step summary", zap.String("path", t.StepSummaryPath), zap.Error(err))
		}
	}
}

// Failed reports a failed run.
func (n *Notifier) Failed(ctx context.Context, t Target, err error) {
	n.reply(ctx, t, FailureText(err))
}

// Say posts text verbatim.
func (n *Notifier) Say(ctx context.Context, t Target, text string) {
	n.reply(ctx, t, text)
}

func (n *Notifier) reply(ctx context.Context, t Target, text string) {
	if t.ResponseURL == "" {
		n.log.Debug(ctx, "no response_url, skipping slack reply")
		return
	}
	if err := n.Reply(ctx, t.ResponseURL, withLink(text, t.MessageLink)); err != nil {
		n.log.Warn(ctx, "failed to update slack message", zap.Error(err))
		return
	}
	n.log.Debug(ctx, "updated slack message")
}

// Reply replaces the original ephemeral message behind responseURL with
// text.
func (n *Notifier) Reply(ctx context.Context, responseURL, text string) error {
	u, err := url.Parse(responseURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("invalid response_url")
	}

	body, err := json.Marshal(reply{Text: text, ReplaceOriginal: true, ResponseType: "ephemeral"})
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post reply: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack rejected reply: status %d", resp.StatusCode)
	}
	return nil
}

// AppendStepSummary appends a pull request line to a GitHub Actions step
// summary file.
func AppendStepSummary(path, prURL string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open step summary: %w", err)
	}
	if _, err := fmt.Fprintf(f, "### Slack Thread Summarizer\n\nSuccessfully created pull request: %s\n", prURL); err != nil {
		f.Close()
		return fmt.Errorf("failed to write step summary: %w", err)
	}
	return f.Close()
}
