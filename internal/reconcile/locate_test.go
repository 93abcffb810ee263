package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/kbsync/internal/repository"
)

func files(names ...string) []repository.Entry {
	entries := make([]repository.Entry, len(names))
	for i, name := range names {
		entries[i] = repository.Entry{Name: name, Path: "knowledge-base/" + name, Type: repository.EntryFile}
	}
	return entries
}

func TestFindMatch(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		entries []repository.Entry
		want    Match
	}{
		{
			name:    "empty directory",
			slug:    "redis-ha",
			entries: nil,
			want:    Match{},
		},
		{
			name:    "exact match",
			slug:    "redis-ha",
			entries: files("postgres-tuning.md", "redis-ha.md"),
			want:    Match{Kind: MatchExact, Path: "knowledge-base/redis-ha.md"},
		},
		{
			name:    "exact beats earlier fuzzy",
			slug:    "redis-cluster-setup",
			entries: files("redis-cluster-failover.md", "redis-cluster-setup.md"),
			want:    Match{Kind: MatchExact, Path: "knowledge-base/redis-cluster-setup.md"},
		},
		{
			name:    "fuzzy shares two of three words",
			slug:    "redis-cluster-setup",
			entries: files("redis-cluster-failover.md"),
			want:    Match{Kind: MatchFuzzy, Path: "knowledge-base/redis-cluster-failover.md"},
		},
		{
			name:    "first fuzzy match in listing order",
			slug:    "redis-cluster-setup",
			entries: files("redis-backups.md", "redis-cluster-failover.md"),
			want:    Match{Kind: MatchFuzzy, Path: "knowledge-base/redis-backups.md"},
		},
		{
			name:    "no shared words never match",
			slug:    "redis-cluster-setup",
			entries: files("postgres-vacuum-tuning.md"),
			want:    Match{},
		},
		{
			name:    "no significant words never match",
			slug:    "how-to",
			entries: files("a-b-c.md"),
			want:    Match{},
		},
		{
			name:    "below half of the smaller set",
			slug:    "kafka-consumer-groups-rebalancing",
			entries: files("kafka-topics-retention-policy.md"),
			want:    Match{},
		},
		{
			name: "directories and non-markdown ignored",
			slug: "redis-ha",
			entries: []repository.Entry{
				{Name: "redis-ha.md", Path: "knowledge-base/redis-ha.md", Type: repository.EntryDir},
				{Name: "redis-ha.txt", Path: "knowledge-base/redis-ha.txt", Type: repository.EntryFile},
			},
			want: Match{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindMatch(tt.slug, tt.entries))
		})
	}
}

func TestSimilar(t *testing.T) {
	assert.True(t, similar([]string{"redis", "cluster", "setup"}, []string{"redis", "cluster", "failover"}))
	assert.True(t, similar([]string{"redis"}, []string{"redis", "high", "availability"}))
	assert.False(t, similar(nil, []string{"redis"}))
	assert.False(t, similar([]string{"alpha", "beta"}, []string{"gamma", "delta"}))
	// duplicate words count once
	assert.False(t, similar([]string{"redis", "redis", "redis", "redis"}, []string{"redis", "alpha", "bravo", "charlie"}))
}

func TestMatchKind_String(t *testing.T) {
	assert.Equal(t, "none", MatchNone.String())
	assert.Equal(t, "exact", MatchExact.String())
	assert.Equal(t, "fuzzy", MatchFuzzy.String())
	assert.False(t, Match{}.Found())
	assert.True(t, Match{Kind: MatchFuzzy, Path: "p"}.Found())
}
