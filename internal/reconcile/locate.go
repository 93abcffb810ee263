package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/kbsync/internal/article"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
)

const articleExt = ".md"

// MatchKind classifies the outcome of locating an existing article.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is the article a summary should be merged into. Path is empty for
// MatchNone.
type Match struct {
	Kind MatchKind
	Path string
}

// Found reports whether an existing article was matched.
func (m Match) Found() bool {
	return m.Kind != MatchNone
}

// FindMatch picks the article in entries that slug belongs to. A file
// named slug.md wins outright. Otherwise the first file, in listing order,
// sharing at least half of the smaller set of significant words is a fuzzy
// match. Entries that are not markdown files are ignored.
func FindMatch(slug string, entries []repository.Entry) Match {
	articles := make([]repository.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Type == repository.EntryFile && strings.HasSuffix(e.Name, articleExt) {
			articles = append(articles, e)
		}
	}

	for _, e := range articles {
		if e.Name == slug+articleExt {
			return Match{Kind: MatchExact, Path: e.Path}
		}
	}

	words := article.SignificantWords(slug)
	for _, e := range articles {
		existing := article.SignificantWords(strings.TrimSuffix(e.Name, articleExt))
		if similar(words, existing) {
			return Match{Kind: MatchFuzzy, Path: e.Path}
		}
	}
	return Match{}
}

// similar reports whether a and b share at least floor(min/2) distinct
// words, and at least one.
func similar(a, b []string) bool {
	shared := overlap(a, b)
	return shared > 0 && shared >= min(len(a), len(b))/2
}

func overlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	n := 0
	for _, w := range b {
		if _, ok := set[w]; ok {
			n++
			delete(set, w)
		}
	}
	return n
}

// locate resolves the default branch and searches it for an article
// matching slug.
func (r *Reconciler) locate(ctx context.Context, slug string) (string, Match, error) {
	base, err := r.repo.DefaultBranch(ctx)
	if err != nil {
		return "", Match{}, fmt.Errorf("failed to resolve default branch: %w", err)
	}

	entries, err := r.repo.ListFiles(ctx, r.cfg.Directory, base)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		r.log.Debug(ctx, "article directory absent, treating as empty")
		return base, Match{}, nil
	case err != nil:
		return "", Match{}, fmt.Errorf("failed to list articles: %w", err)
	}
	return base, FindMatch(slug, entries), nil
}
