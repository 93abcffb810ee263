package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	linkA = "[Slack Thread](https://slack.com/a)"
	linkB = "[Slack Thread](https://slack.com/b)"
	linkC = "[Slack Thread](https://slack.com/c)"
)

func TestFreshDocument(t *testing.T) {
	summary := "# Redis HA\n\n**Keywords:** redis\n\nUse sentinel."
	want := "# Redis HA\n\n**Keywords:** redis\n\nUse sentinel.\n\n---\n\n**Source:** " + linkA
	assert.Equal(t, want, FreshDocument(summary, linkA))
}

func TestRecoveredDocument(t *testing.T) {
	assert.Equal(t, "# T\n\n---\n\n**Sources:**\n- "+linkA, RecoveredDocument("# T", linkA))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		body    string
		sources Sources
	}{
		{
			name:    "singular footer",
			doc:     "# T\n\nbody\n\n---\n\n**Source:** " + linkA,
			body:    "# T\n\nbody\n",
			sources: Sources{linkA},
		},
		{
			name:    "plural footer",
			doc:     "# T\n\n---\n\n**Sources:**\n- " + linkA + "\n- " + linkB + "\n",
			body:    "# T\n",
			sources: Sources{linkA, linkB},
		},
		{
			name:    "last footer rule wins",
			doc:     "# T\n\n---\n\n**Source:** " + linkA + "\n\n---\n\n**Source:** " + linkB,
			body:    "# T\n\n---\n\n**Source:** " + linkA + "\n",
			sources: Sources{linkB},
		},
		{
			name: "rule without marker is body",
			doc:  "# T\n\n---\n\nmore text",
			body: "# T\n\n---\n\nmore text",
		},
		{
			name:    "malformed footer is wrapped",
			doc:     "# T\n---\n**Source:** https://slack.com/raw",
			body:    "# T",
			sources: Sources{"[Slack Thread](https://slack.com/raw)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.doc)
			assert.Equal(t, tt.body, doc.Body)
			assert.Equal(t, tt.sources, doc.Sources)
		})
	}
}

func TestSources_Render(t *testing.T) {
	assert.Equal(t, "**Source:** "+linkA, Sources{linkA}.Render())
	assert.Equal(t, "**Sources:**\n- "+linkA+"\n- "+linkB, Sources{linkA, linkB}.Render())
}

func TestMerge_SingularToPlural(t *testing.T) {
	existing := "# Redis HA\n\n**Keywords:** redis, ha\n\nUse sentinel.\n\n---\n\n**Source:** " + linkA
	summary := "# Redis Failover\n\n**Keywords:** redis, failover\n\nPromote a replica."

	want := "# Redis HA\n\n**Keywords:** redis, ha, failover\n\nUse sentinel." +
		"\n\n## Additional Context\n\nPromote a replica." +
		"\n\n---\n\n**Sources:**\n- " + linkA + "\n- " + linkB

	assert.Equal(t, want, Merge(existing, summary, linkB))
}

func TestMerge_AppendsToPluralFooter(t *testing.T) {
	existing := "# Redis HA\n\nbody\n\n---\n\n**Sources:**\n- " + linkA + "\n- " + linkB
	got := Merge(existing, "# Redis\n\nmore", linkC)
	assert.Equal(t, []string{linkA, linkB, linkC}, []string(Parse(got).Sources))
}

func TestMerge_InsertsKeywordsAfterTitle(t *testing.T) {
	existing := "# Redis HA\nUse sentinel.\n\n---\n\n**Source:** " + linkA
	summary := "# Redis\n**Keywords:** redis\n\nPromote a replica."

	want := "# Redis HA\n\n**Keywords:** redis\nUse sentinel." +
		"\n\n## Additional Context\n\nPromote a replica." +
		"\n\n---\n\n**Sources:**\n- " + linkA + "\n- " + linkB
	assert.Equal(t, want, Merge(existing, summary, linkB))
}

func TestMerge_NoTitleLeavesBody(t *testing.T) {
	existing := "plain notes"
	summary := "# Redis\n**Keywords:** redis\n\nPromote."
	want := "plain notes\n\n## Additional Context\n\nPromote.\n\n---\n\n**Source:** " + linkA
	assert.Equal(t, want, Merge(existing, summary, linkA))
}

func TestMerge_KeepsLaterHeadings(t *testing.T) {
	summary := "# Title\n**Keywords:** k\n\nIntro.\n\n## Steps\n1. do it"
	got := Merge("# Existing\n", summary, linkA)
	assert.Contains(t, got, "## Additional Context\n\nIntro.\n\n## Steps\n1. do it\n\n---")
}

func TestMerge_SummaryWithoutBody(t *testing.T) {
	summary := "# Title\n**Keywords:** k"
	got := Merge("# Existing", summary, linkA)
	assert.Contains(t, got, "## Additional Context\n\n"+summary+"\n\n---")
}

func TestMerge_KeywordCap(t *testing.T) {
	existing := "# T\n\n**Keywords:** a, b, c, d, e, f, g, h, i, j\n\nbody"
	got := Merge(existing, "# T\n\n**Keywords:** k, l\n\nmore", linkA)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, ExtractKeywords(got))
}
