package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/article"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
)

const instrumentationName = "github.com/fyrsmithlabs/kbsync/internal/reconcile"

// Config controls where articles live and how branches are named.
type Config struct {
	// Directory holds the articles, e.g. "knowledge-base".
	Directory string
	// BranchPrefix is prepended to every working branch, e.g. "kb/add-".
	BranchPrefix string
}

// Request is one summary to reconcile.
type Request struct {
	// Summary is the generated article: a title heading, an optional
	// keywords line and a body. It has no sources footer.
	Summary string
	// SourceURL links back to the originating thread.
	SourceURL string
	// ChannelName is shown in the pull request body.
	ChannelName string
	// MessageTS is the thread timestamp, used to make the branch unique.
	MessageTS string
}

func (r Request) validate() error {
	var problems []string
	if strings.TrimSpace(r.Summary) == "" {
		problems = append(problems, "summary is empty")
	}
	if r.SourceURL == "" {
		problems = append(problems, "source URL is empty")
	}
	if r.MessageTS == "" {
		problems = append(problems, "message timestamp is empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, ", "))
	}
	return nil
}

// Result describes a completed run.
type Result struct {
	URL      string
	Number   int
	IsUpdate bool
	Match    Match
	Title    string
	Path     string
	Branch   string
	Base     string
	Commit   string
	// Content is the document that was committed.
	Content string
}

// Reconciler runs reconciliations against one repository. It holds no
// mutable state and is safe for concurrent use, although concurrent runs
// on the same topic may open duplicate pull requests.
type Reconciler struct {
	repo   repository.Repository
	cfg    Config
	log    *logging.Logger
	tracer trace.Tracer
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Reconciler) { r.log = log.Named("reconcile") }
}

// WithTracer sets the tracer. The global tracer provider is used by
// default.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Reconciler) { r.tracer = tracer }
}

// New returns a Reconciler writing to repo.
func New(repo repository.Repository, cfg Config, opts ...Option) (*Reconciler, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Directory == "" {
		return nil, errors.New("article directory is required")
	}
	if strings.ContainsAny(cfg.BranchPrefix, " ~^:?*[\\") {
		return nil, fmt.Errorf("invalid branch prefix %q", cfg.BranchPrefix)
	}

	r := &Reconciler{
		repo:   repo,
		cfg:    cfg,
		log:    logging.NewNop(),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Slug returns the slug a summary is filed under.
func Slug(summary string) string {
	slug := article.Slugify(article.ExtractTitle(summary))
	if slug == "" {
		slug = article.Slugify(article.FallbackTitle)
	}
	return slug
}

// Reconcile files req.Summary as a new or updated article and opens a pull
// request for it. Errors from remote calls are *StageError values wrapping
// the repository taxonomy.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "reconcile", trace.WithAttributes(
		attribute.String("reconcile.channel_name", req.ChannelName),
		attribute.String("reconcile.message_ts", req.MessageTS),
	))
	defer span.End()

	res, err := r.run(ctx, req)
	RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		reason := repository.Reason(err)
		RunsTotal.WithLabelValues(outcomeFailed).Inc()
		StageFailures.WithLabelValues(string(StageOf(err)), reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error(ctx, "reconciliation failed",
			zap.String("stage", string(StageOf(err))),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := outcomeCreated
	if res.IsUpdate {
		outcome = outcomeUpdated
	}
	RunsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.Bool("reconcile.is_update", res.IsUpdate),
		attribute.String("reconcile.path", res.Path),
		attribute.String("reconcile.url", res.URL),
	)
	r.log.Info(ctx, "reconciliation complete",
		zap.String("url", res.URL),
		zap.Bool("is_update", res.IsUpdate),
		zap.String("match", res.Match.Kind.String()),
		zap.String("path", res.Path),
		zap.String("branch", res.Branch),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (r *Reconciler) run(ctx context.Context, req Request) (*Result, error) {
	slug := Slug(req.Summary)
	res := &Result{
		Title:  article.ExtractTitle(req.Summary),
		Branch: BranchName(r.cfg.BranchPrefix, slug, req.MessageTS),
	}

	err := r.stage(ctx, StageLocate, func(ctx context.Context, span trace.Span) error {
		base, match, err := r.locate(ctx, slug)
		if err != nil {
			return err
		}
		res.Base, res.Match, res.IsUpdate = base, match, match.Found()
		res.Path = match.Path
		if !match.Found() {
			res.Path = path.Join(r.cfg.Directory, slug+articleExt)
		}
		Matches.WithLabelValues(match.Kind.String()).Inc()
		span.SetAttributes(
			attribute.String("reconcile.match", match.Kind.String()),
			attribute.String("reconcile.path", res.Path),
		)
		r.log.Debug(ctx, "located article",
			zap.String("slug", slug),
			zap.String("match", match.Kind.String()),
			zap.String("path", res.Path),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageBranch, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.String("reconcile.branch", res.Branch))
		head, err := r.repo.HeadCommit(ctx, res.Base)
		if err != nil {
			return fmt.Errorf("failed to resolve %s head: %w", res.Base, err)
		}
		if err := r.repo.CreateBranch(ctx, res.Branch, head); err != nil {
			return fmt.Errorf("failed to create branch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageContent, func(ctx context.Context, span trace.Span) error {
		content, err := r.content(ctx, req, res)
		if err != nil {
			return err
		}
		res.Content = content
		span.SetAttributes(attribute.Int("reconcile.content_bytes", len(content)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageWrite, func(ctx context.Context, span trace.Span) error {
		commit, err := r.write(ctx, res)
		if err != nil {
			return err
		}
		res.Commit = commit
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StagePR, func(ctx context.Context, span trace.Span) error {
		pr, err := r.repo.CreatePullRequest(ctx, repository.PullRequestRequest{
			Title: CommitMessage(res.IsUpdate, res.Title),
			Body:  PullRequestBody(res.IsUpdate, req.SourceURL, req.ChannelName, res.Path),
			Head:  res.Branch,
			Base:  res.Base,
		})
		if err != nil {
			return fmt.Errorf("failed to open pull request: %w", err)
		}
		res.URL, res.Number = pr.URL, pr.Number
		span.SetAttributes(attribute.String("reconcile.url", pr.URL))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// stage runs fn inside a child span and tags its error with the stage.
func (r *Reconciler) stage(ctx context.Context, stage Stage, fn func(context.Context, trace.Span) error) error {
	ctx, span := r.tracer.Start(ctx, "reconcile."+string(stage))
	defer span.End()

	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

// content renders the document to commit. A matched article that has
// vanished or is empty on the default branch is replaced by the summary
// with a one-entry sources list.
func (r *Reconciler) content(ctx context.Context, req Request, res *Result) (string, error) {
	link := article.SourceLink(req.SourceURL)
	if !res.IsUpdate {
		return article.FreshDocument(req.Summary, link), nil
	}

	existing, err := r.repo.ReadFile(ctx, res.Path, res.Base)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		r.log.Warn(ctx, "matched article could not be read, writing summary in its place",
			zap.String("path", res.Path),
			zap.Error(err),
		)
		return article.RecoveredDocument(req.Summary, link), nil
	case err != nil:
		return "", fmt.Errorf("failed to read %s: %w", res.Path, err)
	case existing.Content == "":
		r.log.Warn(ctx, "matched article is empty, writing summary in its place", zap.String("path", res.Path))
		return article.RecoveredDocument(req.Summary, link), nil
	}
	return article.Merge(existing.Content, req.Summary, link), nil
}

// write commits res.Content to the working branch, updating the file in
// place when the branch already carries it.
func (r *Reconciler) write(ctx context.Context, res *Result) (string, error) {
	var prior string
	current, err := r.repo.ReadFile(ctx, res.Path, res.Branch)
	switch {
	case err == nil:
		prior = current.BlobID
	case !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("failed to read %s on %s: %w", res.Path, res.Branch, err)
	}

	commit, err := r.repo.WriteFile(ctx, repository.WriteRequest{
		Path:        res.Path,
		Content:     res.Content,
		Branch:      res.Branch,
		Message:     CommitMessage(res.IsUpdate, res.Title),
		PriorBlobID: prior,
	})
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", res.Path, err)
	}
	return commit, nil
}
