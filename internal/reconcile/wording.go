package reconcile

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/kbsync/internal/article"
)

// BranchName returns the working branch for a run. The message timestamp
// keeps it unique per thread.
func BranchName(prefix, slug, messageTS string) string {
	return prefix + slug + "-" + strings.ReplaceAll(messageTS, ".", "-")
}

func verb(isUpdate bool) string {
	if isUpdate {
		return "Update"
	}
	return "Add"
}

// CommitMessage is also used as the pull request title.
func CommitMessage(isUpdate bool, title string) string {
	return fmt.Sprintf("%s KB article: %s", verb(isUpdate), title)
}

// PullRequestBody describes the change for reviewers.
func PullRequestBody(isUpdate bool, sourceURL, channelName, path string) string {
	heading, action, summary := "New", "Created new article", "adds a new"
	if isUpdate {
		heading, action, summary = "Updated", "Extended existing article with new information", "updates an existing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Knowledge Base Article from Slack\n\n", heading)
	fmt.Fprintf(&b, "**Source:** %s\n", article.SourceLink(sourceURL))
	fmt.Fprintf(&b, "**Channel:** #%s\n", channelName)
	fmt.Fprintf(&b, "**Action:** %s\n\n", action)
	fmt.Fprintf(&b, "This PR %s knowledge base article generated from a Slack thread that was marked with a :pushpin: reaction.\n\n", summary)
	fmt.Fprintf(&b, "### File\n- `%s`", path)
	return b.String()
}
