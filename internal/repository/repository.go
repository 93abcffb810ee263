package repository

import "context"

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string    // Base name, e.g. "redis-ha.md"
	Path string    // Path from the repository root
	Type EntryType // File or directory
}

// File is the content of a file at a given ref.
type File struct {
	Path    string
	Content string
	// BlobID identifies this version of the file. It is passed back as
	// WriteRequest.PriorBlobID to update the file in place.
	BlobID string
}

// WriteRequest commits a single file to a branch.
type WriteRequest struct {
	Path    string
	Content string
	Branch  string
	Message string
	// PriorBlobID is empty to create the file and the current blob ID to
	// update it.
	PriorBlobID string
}

// PullRequestRequest opens a pull request from Head into Base.
type PullRequestRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PullRequest is an opened pull request.
type PullRequest struct {
	Number int
	URL    string
}

// Repository is the set of remote operations the reconciler depends on.
// Every method blocks until the remote answers or ctx is done. Failures
// wrap one of the taxonomy errors (ErrNotFound, ErrConflict, ...).
type Repository interface {
	// DefaultBranch returns the name of the branch pull requests target.
	DefaultBranch(ctx context.Context) (string, error)

	// HeadCommit returns the commit ID at the tip of branch.
	HeadCommit(ctx context.Context, branch string) (string, error)

	// ListFiles lists the direct children of dir at ref. A missing
	// directory returns ErrNotFound.
	ListFiles(ctx context.Context, dir, ref string) ([]Entry, error)

	// ReadFile returns the file at path on ref.
	ReadFile(ctx context.Context, path, ref string) (*File, error)

	// CreateBranch creates branch name pointing at fromCommit. An existing
	// branch of that name returns ErrAlreadyExists.
	CreateBranch(ctx context.Context, name, fromCommit string) error

	// WriteFile commits req.Content to req.Path on req.Branch and returns
	// the new commit ID. A stale PriorBlobID returns ErrConflict.
	WriteFile(ctx context.Context, req WriteRequest) (string, error)

	// CreatePullRequest opens a pull request.
	CreatePullRequest(ctx context.Context, req PullRequestRequest) (*PullRequest, error)
}
