package summarize

import (
	"context"
	"errors"
	"strings"
)

// FailedSummary is the placeholder some providers return instead of an
// article. It is never committed.
const FailedSummary = "Failed to generate summary"

// ErrEmptySummary is returned when the model produced no usable article.
var ErrEmptySummary = errors.New("model returned no summary")

// Summarizer generates an article draft from a thread.
type Summarizer interface {
	Summarize(ctx context.Context, thread *Thread) (string, error)
}

// Check rejects blank and placeholder summaries.
func Check(summary string) error {
	s := strings.TrimSpace(summary)
	if s == "" || s == FailedSummary {
		return ErrEmptySummary
	}
	return nil
}
