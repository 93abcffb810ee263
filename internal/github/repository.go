package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
)

// Repository is a repository.Repository backed by one GitHub repository.
type Repository struct {
	client *gh.Client
	owner  string
	name   string
	retry  RetryConfig
	log    *logging.Logger
}

var _ repository.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithRetry sets the retry policy for reads.
func WithRetry(cfg RetryConfig) Option {
	return func(r *Repository) { r.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Repository) { r.log = log.Named("github") }
}

// NewRepository returns a Repository for owner/name.
func NewRepository(client *gh.Client, owner, name string, opts ...Option) *Repository {
	r := &Repository{
		client: client,
		owner:  owner,
		name:   name,
		retry:  DefaultRetryConfig(),
		log:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FullName returns "owner/name".
func (r *Repository) FullName() string {
	return r.owner + "/" + r.name
}

func (r *Repository) DefaultBranch(ctx context.Context) (string, error) {
	var repo *gh.Repository
	resp, err := retry(ctx, r.retry, r.log, repository.OpDefaultBranch, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		repo, resp, err = r.client.Repositories.Get(ctx, r.owner, r.name)
		return resp, err
	})
	if err != nil {
		return "", classify(repository.OpDefaultBranch, r.FullName(), resp, err)
	}
	branch := repo.GetDefaultBranch()
	if branch == "" {
		return "", repository.NewOpError(repository.OpDefaultBranch, r.FullName(), repository.ErrNotFound,
			fmt.Errorf("repository has no default branch"))
	}
	return branch, nil
}

func (r *Repository) HeadCommit(ctx context.Context, branch string) (string, error) {
	var ref *gh.Reference
	resp, err := retry(ctx, r.retry, r.log, repository.OpHeadCommit, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		ref, resp, err = r.client.Git.GetRef(ctx, r.owner, r.name, "heads/"+branch)
		return resp, err
	})
	if err != nil {
		return "", classify(repository.OpHeadCommit, branch, resp, err)
	}
	return ref.GetObject().GetSHA(), nil
}

func (r *Repository) ListFiles(ctx context.Context, dir, ref string) ([]repository.Entry, error) {
	var file *gh.RepositoryContent
	var listing []*gh.RepositoryContent
	resp, err := retry(ctx, r.retry, r.log, repository.OpListFiles, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		file, listing, resp, err = r.client.Repositories.GetContents(ctx, r.owner, r.name, dir,
			&gh.RepositoryContentGetOptions{Ref: ref})
		return resp, err
	})
	if err != nil {
		return nil, classify(repository.OpListFiles, dir, resp, err)
	}
	if file != nil {
		return nil, repository.NewOpError(repository.OpListFiles, dir, repository.ErrNotFound,
			fmt.Errorf("%s is a file, not a directory", dir))
	}

	entries := make([]repository.Entry, 0, len(listing))
	for _, c := range listing {
		var typ repository.EntryType
		switch c.GetType() {
		case "file":
			typ = repository.EntryFile
		case "dir":
			typ = repository.EntryDir
		default:
			// Symlinks and submodules are never articles.
			continue
		}
		entries = append(entries, repository.Entry{Name: c.GetName(), Path: c.GetPath(), Type: typ})
	}
	r.log.Debug(ctx, "listed directory", zap.String("dir", dir), zap.String("ref", ref), zap.Int("entries", len(entries)))
	return entries, nil
}

func (r *Repository) ReadFile(ctx context.Context, path, ref string) (*repository.File, error) {
	var file *gh.RepositoryContent
	resp, err := retry(ctx, r.retry, r.log, repository.OpReadFile, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		file, _, resp, err = r.client.Repositories.GetContents(ctx, r.owner, r.name, path,
			&gh.RepositoryContentGetOptions{Ref: ref})
		return resp, err
	})
	if err != nil {
		return nil, classify(repository.OpReadFile, path, resp, err)
	}
	if file == nil {
		return nil, repository.NewOpError(repository.OpReadFile, path, repository.ErrNotFound,
			fmt.Errorf("%s is a directory", path))
	}

	// The contents API omits the body of files larger than 1MB and reports
	// encoding "none"; the blob API serves those.
	if file.GetEncoding() == "none" {
		var raw []byte
		resp, err := retry(ctx, r.retry, r.log, repository.OpReadFile, func() (*gh.Response, error) {
			var resp *gh.Response
			var err error
			raw, resp, err = r.client.Git.GetBlobRaw(ctx, r.owner, r.name, file.GetSHA())
			return resp, err
		})
		if err != nil {
			return nil, classify(repository.OpReadFile, path, resp, err)
		}
		return &repository.File{Path: path, Content: string(raw), BlobID: file.GetSHA()}, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, repository.NewOpError(repository.OpReadFile, path, nil, fmt.Errorf("failed to decode content: %w", err))
	}
	return &repository.File{Path: path, Content: content, BlobID: file.GetSHA()}, nil
}

func (r *Repository) CreateBranch(ctx context.Context, name, fromCommit string) error {
	_, resp, err := r.client.Git.CreateRef(ctx, r.owner, r.name, &gh.Reference{
		Ref:    gh.String("refs/heads/" + name),
		Object: &gh.GitObject{SHA: gh.String(fromCommit)},
	})
	if err != nil {
		return classify(repository.OpCreateBranch, name, resp, err)
	}
	r.log.Info(ctx, "created branch", zap.String("branch", name), zap.String("from", fromCommit))
	return nil
}

func (r *Repository) WriteFile(ctx context.Context, req repository.WriteRequest) (string, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(req.Message),
		Content: []byte(req.Content),
		Branch:  gh.String(req.Branch),
	}

	var res *gh.RepositoryContentResponse
	var resp *gh.Response
	var err error
	if req.PriorBlobID == "" {
		res, resp, err = r.client.Repositories.CreateFile(ctx, r.owner, r.name, req.Path, opts)
	} else {
		opts.SHA = gh.String(req.PriorBlobID)
		res, resp, err = r.client.Repositories.UpdateFile(ctx, r.owner, r.name, req.Path, opts)
	}
	if err != nil {
		return "", classify(repository.OpWriteFile, req.Path, resp, err)
	}

	commit := res.Commit.GetSHA()
	r.log.Info(ctx, "committed file",
		zap.String("path", req.Path),
		zap.String("branch", req.Branch),
		zap.Bool("update", req.PriorBlobID != ""),
		zap.String("commit", commit),
	)
	return commit, nil
}

func (r *Repository) CreatePullRequest(ctx context.Context, req repository.PullRequestRequest) (*repository.PullRequest, error) {
	pr, resp, err := r.client.PullRequests.Create(ctx, r.owner, r.name, &gh.NewPullRequest{
		Title: gh.String(req.Title),
		Head:  gh.String(req.Head),
		Base:  gh.String(req.Base),
		Body:  gh.String(req.Body),
	})
	if err != nil {
		return nil, classify(repository.OpCreatePullRequest, req.Head, resp, err)
	}
	r.log.Info(ctx, "opened pull request", zap.Int("number", pr.GetNumber()), zap.String("url", pr.GetHTMLURL()))
	return &repository.PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}
