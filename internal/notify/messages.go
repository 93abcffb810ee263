// Package notify reports the outcome of a run back to whoever asked for
// it: the Slack user through an interaction response_url, a CI job through
// its step summary, and scripts through stdout.
package notify

import (
	"fmt"
	"strings"
)

// SuccessText is the Slack reply for a created pull request. messages is
// the number of summarized thread messages; zero leaves the count out.
func SuccessText(messages int, url string) string {
	if messages <= 0 {
		return fmt.Sprintf(":white_check_mark: Pull request created: %s", url)
	}
	plural := "s"
	if messages == 1 {
		plural = ""
	}
	return fmt.Sprintf(":white_check_mark: Summary generated from %d message%s! Pull request created: %s", messages, plural, url)
}

// FailureText is the Slack reply for a failed run.
func FailureText(err error) string {
	return fmt.Sprintf(":x: Failed to process thread: %v", err)
}

// NoMessagesText is the Slack reply for a thread with nothing in it.
const NoMessagesText = ":x: Failed to fetch thread: No messages found"

// MessageLink is the archive permalink of a message, or "" when the
// workspace name is unknown.
func MessageLink(workspaceName, channelID, ts string) string {
	if workspaceName == "" || channelID == "" || ts == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.slack.com/archives/%s/p%s", workspaceName, channelID, strings.ReplaceAll(ts, ".", ""))
}

// withLink appends a Slack mrkdwn link to text.
func withLink(text, link string) string {
	if link == "" {
		return text
	}
	return text + "\n\n<" + link + "|View message>"
}
