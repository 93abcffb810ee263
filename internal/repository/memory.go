package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Repository. It models branches as pointers to
// immutable commit snapshots, which is enough to exercise the reconciler
// without a remote. Memory is safe for concurrent use.
type Memory struct {
	mu            sync.Mutex
	owner         string
	defaultBranch string
	commits       map[string]map[string]string // commit ID -> path -> content
	branches      map[string]string            // branch -> commit ID
	pulls         []PullRequestRequest
	faults        map[string]error
	calls         []string
	seq           int
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty repository whose default branch has a single
// empty commit. owner is used to build pull request URLs.
func NewMemory(owner, defaultBranch string) *Memory {
	m := &Memory{
		owner:         owner,
		defaultBranch: defaultBranch,
		commits:       make(map[string]map[string]string),
		branches:      make(map[string]string),
		faults:        make(map[string]error),
	}
	m.branches[defaultBranch] = m.commit(map[string]string{})
	return m
}

// Seed commits content at path directly on the default branch.
func (m *Memory) Seed(filePath, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[m.defaultBranch] = m.commit(m.snapshot(m.defaultBranch, filePath, content))
}

// FailOn makes every later call of op fail with err. A nil err clears the
// fault.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

// Calls returns the operations invoked so far, in order.
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Branches returns the branch names, sorted.
func (m *Memory) Branches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.branches))
	for name := range m.branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PullRequests returns the opened pull requests in creation order.
func (m *Memory) PullRequests() []PullRequestRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PullRequestRequest(nil), m.pulls...)
}

// Content returns the file at filePath on branch.
func (m *Memory) Content(branch, filePath string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	commit, ok := m.branches[branch]
	if !ok {
		return "", false
	}
	content, ok := m.commits[commit][filePath]
	return content, ok
}

func (m *Memory) DefaultBranch(ctx context.Context) (string, error) {
	if err := m.begin(ctx, OpDefaultBranch, ""); err != nil {
		return "", err
	}
	defer m.mu.Unlock()
	return m.defaultBranch, nil
}

func (m *Memory) HeadCommit(ctx context.Context, branch string) (string, error) {
	if err := m.begin(ctx, OpHeadCommit, branch); err != nil {
		return "", err
	}
	defer m.mu.Unlock()
	commit, ok := m.branches[branch]
	if !ok {
		return "", NewOpError(OpHeadCommit, branch, ErrNotFound, nil)
	}
	return commit, nil
}

func (m *Memory) ListFiles(ctx context.Context, dir, ref string) ([]Entry, error) {
	if err := m.begin(ctx, OpListFiles, dir); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	files, ok := m.resolve(ref)
	if !ok {
		return nil, NewOpError(OpListFiles, dir, ErrNotFound, fmt.Errorf("unknown ref %q", ref))
	}

	prefix := strings.TrimSuffix(dir, "/") + "/"
	seen := make(map[string]Entry)
	for p := range files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		name, _, nested := strings.Cut(rest, "/")
		entry := Entry{Name: name, Path: prefix + name, Type: EntryFile}
		if nested {
			entry.Type = EntryDir
		}
		seen[name] = entry
	}
	if len(seen) == 0 {
		return nil, NewOpError(OpListFiles, dir, ErrNotFound, nil)
	}

	entries := make([]Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Memory) ReadFile(ctx context.Context, filePath, ref string) (*File, error) {
	if err := m.begin(ctx, OpReadFile, filePath); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	files, ok := m.resolve(ref)
	if !ok {
		return nil, NewOpError(OpReadFile, filePath, ErrNotFound, fmt.Errorf("unknown ref %q", ref))
	}
	content, ok := files[filePath]
	if !ok {
		return nil, NewOpError(OpReadFile, filePath, ErrNotFound, nil)
	}
	return &File{Path: filePath, Content: content, BlobID: BlobID(content)}, nil
}

func (m *Memory) CreateBranch(ctx context.Context, name, fromCommit string) error {
	if err := m.begin(ctx, OpCreateBranch, name); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if _, exists := m.branches[name]; exists {
		return NewOpError(OpCreateBranch, name, ErrAlreadyExists, nil)
	}
	if _, ok := m.commits[fromCommit]; !ok {
		return NewOpError(OpCreateBranch, name, ErrNotFound, fmt.Errorf("unknown commit %q", fromCommit))
	}
	m.branches[name] = fromCommit
	return nil
}

func (m *Memory) WriteFile(ctx context.Context, req WriteRequest) (string, error) {
	if err := m.begin(ctx, OpWriteFile, req.Path); err != nil {
		return "", err
	}
	defer m.mu.Unlock()
	commit, ok := m.branches[req.Branch]
	if !ok {
		return "", NewOpError(OpWriteFile, req.Path, ErrNotFound, fmt.Errorf("unknown branch %q", req.Branch))
	}

	current, exists := m.commits[commit][req.Path]
	switch {
	case exists && req.PriorBlobID == "":
		return "", NewOpError(OpWriteFile, req.Path, ErrConflict, fmt.Errorf("file exists"))
	case exists && req.PriorBlobID != BlobID(current):
		return "", NewOpError(OpWriteFile, req.Path, ErrConflict, fmt.Errorf("stale blob %s", req.PriorBlobID))
	case !exists && req.PriorBlobID != "":
		return "", NewOpError(OpWriteFile, req.Path, ErrNotFound, nil)
	}

	id := m.commit(m.snapshot(req.Branch, req.Path, req.Content))
	m.branches[req.Branch] = id
	return id, nil
}

func (m *Memory) CreatePullRequest(ctx context.Context, req PullRequestRequest) (*PullRequest, error) {
	if err := m.begin(ctx, OpCreatePullRequest, req.Head); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	for _, name := range []string{req.Head, req.Base} {
		if _, ok := m.branches[name]; !ok {
			return nil, NewOpError(OpCreatePullRequest, req.Head, ErrNotFound, fmt.Errorf("unknown branch %q", name))
		}
	}
	for _, pr := range m.pulls {
		if pr.Head == req.Head && pr.Base == req.Base {
			return nil, NewOpError(OpCreatePullRequest, req.Head, ErrAlreadyExists, nil)
		}
	}
	m.pulls = append(m.pulls, req)
	number := len(m.pulls)
	return &PullRequest{
		Number: number,
		URL:    fmt.Sprintf("https://example.invalid/%s/pull/%d", m.owner, number),
	}, nil
}

// BlobID returns the git blob hash of content.
func BlobID(content string) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// begin records the call, checks ctx and injected faults, and leaves the
// lock held when it returns nil.
func (m *Memory) begin(ctx context.Context, op, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.calls = append(m.calls, op)
	if err, ok := m.faults[op]; ok {
		m.mu.Unlock()
		return NewOpError(op, target, nil, err)
	}
	return nil
}

// resolve maps a branch name or commit ID to its snapshot.
func (m *Memory) resolve(ref string) (map[string]string, bool) {
	if commit, ok := m.branches[ref]; ok {
		ref = commit
	}
	files, ok := m.commits[ref]
	return files, ok
}

// snapshot copies the tip of branch with filePath set to content.
func (m *Memory) snapshot(branch, filePath, content string) map[string]string {
	base := m.commits[m.branches[branch]]
	files := make(map[string]string, len(base)+1)
	for p, c := range base {
		files[p] = c
	}
	files[filePath] = content
	return files
}

func (m *Memory) commit(files map[string]string) string {
	m.seq++
	h := sha1.New()
	fmt.Fprintf(h, "commit %d", m.seq)
	id := hex.EncodeToString(h.Sum(nil))
	m.commits[id] = files
	return id
}
