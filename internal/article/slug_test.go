package article

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title", "Redis High Availability", "redis-high-availability"},
		{"leading hash", "# Redis High Availability", "redis-high-availability"},
		{"surrounding whitespace", "  Deploying  to  Prod  ", "deploying-to-prod"},
		{"punctuation runs", "What's new?! (v2.0) -- notes", "what-s-new-v2-0-notes"},
		{"leading and trailing symbols", "***Postgres***", "postgres"},
		{"unicode collapses", "Café ümlaut", "caf-mlaut"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
		{"truncated", strings.Repeat("abcde ", 20), "abcde-abcde-abcde-abcde-abcde-abcde-abcde-abcde-ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.title)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 50)
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	titles := []string{"Redis High Availability", "# K8s: Pod eviction & you", ""}
	for _, title := range titles {
		assert.Equal(t, Slugify(title), Slugify(title))
	}
}

func TestSlugify_Collisions(t *testing.T) {
	assert.Equal(t, Slugify("Redis: HA"), Slugify("redis ha"))
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, []string{"redis", "cluster", "setup"}, SignificantWords("redis-cluster-setup"))
	assert.Equal(t, []string{"redis"}, SignificantWords("how-to-use-redis"))
	assert.Empty(t, SignificantWords("a-b-cde"))
	assert.Empty(t, SignificantWords(""))
}
