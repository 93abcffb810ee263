package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fyrsmithlabs/kbsync/internal/config"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/kbsync/internal/summarize"

// GeminiConfig configures the Gemini summarizer.
type GeminiConfig struct {
	APIKey config.Secret
	Model  string
	// Timeout bounds one generation call. Zero means no timeout.
	Timeout time.Duration
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Gemini summarizes threads with the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logging.Logger
	tracer  trace.Tracer
}

var _ Summarizer = (*Gemini)(nil)

// NewGemini creates a Gemini summarizer.
func NewGemini(ctx context.Context, cfg GeminiConfig, log *logging.Logger) (*Gemini, error) {
	if !cfg.APIKey.IsSet() {
		return nil, errors.New("gemini API key not set")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model not set")
	}
	if log == nil {
		log = logging.NewNop()
	}

	cc := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey.Value(),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log.Named("gemini"),
		tracer:  otel.Tracer(instrumentationName),
	}, nil
}

// Summarize asks the model for an article covering thread.
func (g *Gemini) Summarize(ctx context.Context, thread *Thread) (string, error) {
	if err := thread.Validate(); err != nil {
		return "", err
	}

	ctx, span := g.tracer.Start(ctx, "summarize.generate", trace.WithAttributes(
		attribute.String("summarize.model", g.model),
		attribute.Int("summarize.messages", len(thread.Messages)),
	))
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := Prompt(thread.Content())
	g.log.Debug(ctx, "sending thread to gemini",
		zap.String("model", g.model),
		zap.Int("messages", len(thread.Messages)),
		zap.Int("prompt_bytes", len(prompt)),
	)

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	summary := resp.Text()
	if err := Check(summary); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("summarize.summary_bytes", len(summary)))
	g.log.Info(ctx, "summary generated",
		zap.Int("summary_bytes", len(summary)),
		zap.Duration("duration", time.Since(start)),
	)
	return summary, nil
}
