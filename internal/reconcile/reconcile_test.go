package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/kbsync/internal/article"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
	"github.com/fyrsmithlabs/kbsync/internal/telemetry"
)

const (
	oldURL = "https://slack.com/app_redirect?team=T1&channel=C1&message_ts=1600000000.000001"
	newURL = "https://slack.com/app_redirect?team=T1&channel=C1&message_ts=1700000000.000100"
)

var testConfig = Config{Directory: "knowledge-base", BranchPrefix: "kb/add-"}

func newReconciler(t *testing.T, repo repository.Repository, opts ...Option) *Reconciler {
	t.Helper()
	r, err := New(repo, testConfig, opts...)
	require.NoError(t, err)
	return r
}

func request(summary string) Request {
	return Request{
		Summary:     summary,
		SourceURL:   newURL,
		ChannelName: "ops",
		MessageTS:   "1700000000.000100",
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, testConfig)
	assert.ErrorContains(t, err, "repository is required")

	_, err = New(repository.NewMemory("acme", "main"), Config{})
	assert.ErrorContains(t, err, "directory is required")

	_, err = New(repository.NewMemory("acme", "main"), Config{Directory: "kb", BranchPrefix: "bad prefix"})
	assert.ErrorContains(t, err, "invalid branch prefix")
}

func TestReconcile_InvalidRequest(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	r := newReconciler(t, mem)

	_, err := r.Reconcile(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorContains(t, err, "summary is empty")
	assert.ErrorContains(t, err, "message timestamp is empty")
	assert.Empty(t, mem.Calls())
}

func TestReconcile_CreatesArticle(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	log := logging.NewTestLogger()
	r := newReconciler(t, mem, WithLogger(log.Logger))

	summary := "# Redis High Availability\n\n**Keywords:** redis, sentinel\n\nRun three sentinels."
	res, err := r.Reconcile(context.Background(), request(summary))
	require.NoError(t, err)

	assert.False(t, res.IsUpdate)
	assert.Equal(t, MatchNone, res.Match.Kind)
	assert.Equal(t, "knowledge-base/redis-high-availability.md", res.Path)
	assert.Equal(t, "kb/add-redis-high-availability-1700000000-000100", res.Branch)
	assert.Equal(t, "main", res.Base)
	assert.Equal(t, "https://example.invalid/acme/pull/1", res.URL)

	// Byte-exact fresh document.
	want := summary + "\n\n---\n\n**Source:** [Slack Thread](" + newURL + ")"
	assert.Equal(t, want, res.Content)
	content, ok := mem.Content(res.Branch, res.Path)
	require.True(t, ok)
	assert.Equal(t, want, content)

	_, onMain := mem.Content("main", res.Path)
	assert.False(t, onMain, "default branch is untouched")

	prs := mem.PullRequests()
	require.Len(t, prs, 1)
	assert.Equal(t, "Add KB article: Redis High Availability", prs[0].Title)
	assert.Equal(t, res.Branch, prs[0].Head)
	assert.Equal(t, "main", prs[0].Base)
	assert.Contains(t, prs[0].Body, "**Action:** Created new article")
	assert.Contains(t, prs[0].Body, "**Channel:** #ops")

	log.AssertField(t, "reconciliation complete", "is_update", false)
	log.AssertField(t, "reconciliation complete", "url", res.URL)
	log.AssertLogged(t, zapcore.DebugLevel, "article directory absent")
}

func TestReconcile_MergesFuzzyMatch(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	existing := "# Redis HA\n\n**Keywords:** redis, ha\n\nUse sentinel.\n\n---\n\n**Source:** " + article.SourceLink(oldURL)
	mem.Seed("knowledge-base/redis-ha.md", existing)
	mem.Seed("knowledge-base/postgres-tuning.md", "# Postgres Tuning\n")
	r := newReconciler(t, mem)

	summary := "# Redis High Availability Setup\n\n**Keywords:** redis, clustering\n\nEnable cluster mode."
	res, err := r.Reconcile(context.Background(), request(summary))
	require.NoError(t, err)

	assert.True(t, res.IsUpdate)
	assert.Equal(t, Match{Kind: MatchFuzzy, Path: "knowledge-base/redis-ha.md"}, res.Match)
	assert.Equal(t, "knowledge-base/redis-ha.md", res.Path)
	assert.Equal(t, "kb/add-redis-high-availability-setup-1700000000-000100", res.Branch)

	assert.Equal(t, []string{"redis", "ha", "clustering"}, article.ExtractKeywords(res.Content))
	doc := article.Parse(res.Content)
	assert.Equal(t, article.Sources{article.SourceLink(oldURL), article.SourceLink(newURL)}, doc.Sources)
	assert.Contains(t, res.Content, "**Sources:**\n- [Slack Thread]("+oldURL+")\n- [Slack Thread]("+newURL+")")
	assert.Contains(t, res.Content, "## Additional Context\n\nEnable cluster mode.")

	content, _ := mem.Content(res.Branch, res.Path)
	assert.Equal(t, res.Content, content, "existing file updated in place")

	prs := mem.PullRequests()
	require.Len(t, prs, 1)
	assert.Equal(t, "Update KB article: Redis High Availability Setup", prs[0].Title)
	assert.Contains(t, prs[0].Body, "**Action:** Extended existing article with new information")
	assert.Contains(t, prs[0].Body, "- `knowledge-base/redis-ha.md`")
}

func TestReconcile_ExactMatchWins(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	mem.Seed("knowledge-base/redis-cluster-failover.md", "# Redis Cluster Failover\n")
	mem.Seed("knowledge-base/redis-cluster-setup.md", "# Redis Cluster Setup\n")
	r := newReconciler(t, mem)

	res, err := r.Reconcile(context.Background(), request("# Redis Cluster Setup\n\nsteps"))
	require.NoError(t, err)
	assert.Equal(t, Match{Kind: MatchExact, Path: "knowledge-base/redis-cluster-setup.md"}, res.Match)
}

func TestReconcile_EmptyMatchedArticle(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	mem.Seed("knowledge-base/redis-ha.md", "")
	r := newReconciler(t, mem)

	res, err := r.Reconcile(context.Background(), request("# Redis HA\n\nnotes"))
	require.NoError(t, err)
	assert.True(t, res.IsUpdate)
	assert.Equal(t, "# Redis HA\n\nnotes\n\n---\n\n**Sources:**\n- [Slack Thread]("+newURL+")", res.Content)
}

func TestReconcile_FallbackTitle(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	r := newReconciler(t, mem)

	res, err := r.Reconcile(context.Background(), request("no heading here"))
	require.NoError(t, err)
	assert.Equal(t, article.FallbackTitle, res.Title)
	assert.Equal(t, "knowledge-base/slack-thread-summary.md", res.Path)

	res, err = r.Reconcile(context.Background(), Request{Summary: "# !!!\n\nx", SourceURL: newURL, MessageTS: "2"})
	require.NoError(t, err)
	assert.Equal(t, "knowledge-base/slack-thread-summary.md", res.Path)
	assert.Equal(t, "kb/add-slack-thread-summary-2", res.Branch)
	assert.False(t, res.IsUpdate, "the first run's article is not on the default branch yet")
}

func TestReconcile_StageFailures(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		name      string
		op        string
		err       error
		seed      bool
		stage     Stage
		kind      error
		branches  int
		wroteFile bool
	}{
		{name: "default branch", op: repository.OpDefaultBranch, err: repository.ErrRemoteUnavailable, stage: StageLocate, kind: repository.ErrRemoteUnavailable, branches: 1},
		{name: "listing transport error is fatal", op: repository.OpListFiles, err: repository.ErrRemoteUnavailable, stage: StageLocate, kind: repository.ErrRemoteUnavailable, branches: 1},
		{name: "head commit", op: repository.OpHeadCommit, err: repository.ErrNotFound, stage: StageBranch, kind: repository.ErrNotFound, branches: 1},
		{name: "branch permission", op: repository.OpCreateBranch, err: repository.ErrPermissionDenied, stage: StageBranch, kind: repository.ErrPermissionDenied, branches: 1},
		{name: "read matched article", op: repository.OpReadFile, err: repository.ErrPermissionDenied, seed: true, stage: StageContent, kind: repository.ErrPermissionDenied, branches: 2},
		{name: "write conflict", op: repository.OpWriteFile, err: repository.ErrConflict, stage: StageWrite, kind: repository.ErrConflict, branches: 2},
		{name: "pull request", op: repository.OpCreatePullRequest, err: errBoom, stage: StagePR, kind: errBoom, branches: 2, wroteFile: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := repository.NewMemory("acme", "main")
			if tt.seed {
				mem.Seed("knowledge-base/redis-ha.md", "# Redis HA\n")
			}
			mem.FailOn(tt.op, tt.err)
			r := newReconciler(t, mem)

			failedBefore := testutil.ToFloat64(RunsTotal.WithLabelValues(outcomeFailed))
			res, err := r.Reconcile(context.Background(), request("# Redis HA\n\nnew"))
			require.Error(t, err)
			assert.Nil(t, res)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			assert.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), "reconcile "+string(tt.stage))
			assert.Equal(t, failedBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues(outcomeFailed)))

			// No rollback: a branch created before the failure stays.
			assert.Len(t, mem.Branches(), tt.branches)
			_, wrote := mem.Content("kb/add-redis-ha-1700000000-000100", "knowledge-base/redis-ha.md")
			assert.Equal(t, tt.wroteFile || tt.seed, wrote)
			assert.Empty(t, mem.PullRequests())
		})
	}
}

func TestReconcile_DuplicateBranch(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	r := newReconciler(t, mem)

	_, err := r.Reconcile(context.Background(), request("# Redis HA\n\nfirst"))
	require.NoError(t, err)

	_, err = r.Reconcile(context.Background(), request("# Redis HA\n\nsecond"))
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	assert.Equal(t, StageBranch, StageOf(err))
	assert.Len(t, mem.PullRequests(), 1)
}

func TestReconcile_DryRun(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	mem.Seed("knowledge-base/redis-ha.md", "# Redis HA\n\nold\n\n---\n\n**Source:** "+article.SourceLink(oldURL))
	r := newReconciler(t, repository.NewDryRun(mem))

	res, err := r.Reconcile(context.Background(), request("# Redis HA\n\nnew"))
	require.NoError(t, err)
	assert.True(t, res.IsUpdate)
	assert.Equal(t, "dry-run://main...kb/add-redis-ha-1700000000-000100", res.URL)
	assert.Contains(t, res.Content, "## Additional Context\n\nnew")

	assert.Equal(t, []string{"main"}, mem.Branches())
	assert.Empty(t, mem.PullRequests())
	for _, call := range mem.Calls() {
		assert.NotEqual(t, repository.OpWriteFile, call)
		assert.NotEqual(t, repository.OpCreateBranch, call)
	}
}

func TestReconcile_CallSequence(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	mem.Seed("knowledge-base/redis-ha.md", "# Redis HA\n")
	r := newReconciler(t, mem)

	_, err := r.Reconcile(context.Background(), request("# Redis HA\n\nnew"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		repository.OpDefaultBranch,
		repository.OpListFiles,
		repository.OpHeadCommit,
		repository.OpCreateBranch,
		repository.OpReadFile, // matched article on the default branch
		repository.OpReadFile, // prior blob on the working branch
		repository.OpWriteFile,
		repository.OpCreatePullRequest,
	}, mem.Calls())
}

func TestReconcile_Spans(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	mem := repository.NewMemory("acme", "main")
	r := newReconciler(t, mem, WithTracer(tel.Tracer(instrumentationName)))

	_, err := r.Reconcile(context.Background(), request("# Redis HA\n\nnew"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"reconcile.locate",
		"reconcile.branch",
		"reconcile.content",
		"reconcile.write",
		"reconcile.pr",
		"reconcile",
	}, tel.SpanNames())
	tel.AssertSpanAttribute(t, "reconcile.locate", "reconcile.match", "none")
	tel.AssertSpanAttribute(t, "reconcile", "reconcile.is_update", false)

	root := tel.SpanByName("reconcile")
	for _, span := range tel.Spans() {
		if span.Name() != "reconcile" {
			assert.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID())
		}
	}
}

func TestReconcile_FailedSpan(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	mem := repository.NewMemory("acme", "main")
	mem.FailOn(repository.OpCreateBranch, repository.ErrAlreadyExists)
	log := logging.NewTestLogger()
	r := newReconciler(t, mem, WithTracer(tel.Tracer(instrumentationName)), WithLogger(log.Logger))

	_, err := r.Reconcile(context.Background(), request("# Redis HA\n\nnew"))
	require.Error(t, err)

	assert.Equal(t, codes.Error, tel.SpanByName("reconcile.branch").Status().Code)
	assert.Equal(t, codes.Error, tel.SpanByName("reconcile").Status().Code)
	assert.Nil(t, tel.SpanByName("reconcile.content"))

	log.AssertField(t, "reconciliation failed", "stage", "branch")
	log.AssertField(t, "reconciliation failed", "reason", "already_exists")
}

func TestReconcile_ContextCanceled(t *testing.T) {
	mem := repository.NewMemory("acme", "main")
	r := newReconciler(t, mem)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reconcile(ctx, request("# Redis HA\n\nnew"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageLocate, StageOf(err))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "redis-high-availability", Slug("# Redis High Availability\n\nbody"))
	assert.Equal(t, "slack-thread-summary", Slug("no title"))
	assert.Equal(t, "slack-thread-summary", Slug("# ???"))
	assert.Equal(t, 50, len(Slug("# "+strings.Repeat("word ", 20))))
}
