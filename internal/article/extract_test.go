package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"h1", "# Redis HA\n\nbody", "Redis HA"},
		{"h2 first", "intro\n## Setup Guide  \nmore", "Setup Guide"},
		{"first heading wins", "# One\n# Two", "One"},
		{"no heading", "just text\nmore text", FallbackTitle},
		{"indented hash is not a heading", "  # nope", FallbackTitle},
		{"empty", "", FallbackTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.doc))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	doc := "# T\n\n**Keywords:** redis,  clustering , , failover\n\n**Keywords:** ignored"
	assert.Equal(t, []string{"redis", "clustering", "failover"}, ExtractKeywords(doc))
	assert.Empty(t, ExtractKeywords("# T\n\nno keywords here"))
	assert.Empty(t, ExtractKeywords("**Keywords:**"))
}

func TestMergeKeywords(t *testing.T) {
	t.Run("dedupes keeping first occurrence", func(t *testing.T) {
		got := MergeKeywords([]string{"redis", "ha"}, []string{"ha", "sentinel", "redis"}, MaxKeywords)
		assert.Equal(t, []string{"redis", "ha", "sentinel"}, got)
	})

	t.Run("caps at limit dropping new entries", func(t *testing.T) {
		existing := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
		got := MergeKeywords(existing, []string{"k", "l"}, MaxKeywords)
		require.Len(t, got, 10)
		assert.Equal(t, existing, got)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Empty(t, MergeKeywords(nil, nil, MaxKeywords))
	})
}

func TestTokenize_RoundTrip(t *testing.T) {
	doc := "# T\n\n**Keywords:** a\n\ntext\n\n---\n\n**Source:** [Slack Thread](u)\n"
	lines := Tokenize(doc)
	assert.Equal(t, doc, join(lines))

	kinds := make([]LineKind, len(lines))
	for i, l := range lines {
		kinds[i] = l.Kind
	}
	assert.Equal(t, []LineKind{
		KindHeading, KindBlank, KindKeywords, KindBlank, KindText,
		KindBlank, KindRule, KindBlank, KindSources, KindBlank,
	}, kinds)
}
