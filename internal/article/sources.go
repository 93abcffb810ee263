package article

import (
	"fmt"
	"regexp"
	"strings"
)

// sourceLinkText is the anchor text of every rendered source link.
const sourceLinkText = "Slack Thread"

var linkPattern = regexp.MustCompile(`^\[[^\]]*\]\([^)]*\)$`)

// SourceLink renders the markdown link recorded in a sources footer.
func SourceLink(url string) string {
	return fmt.Sprintf("[%s](%s)", sourceLinkText, url)
}

// SlackThreadLink builds the URL of a thread's root message. A known
// workspace ID produces an app_redirect link, which opens in whichever
// client the reader uses; otherwise a web client link is returned.
func SlackThreadLink(workspaceID, channelID, ts string) string {
	if workspaceID != "" {
		return fmt.Sprintf("https://slack.com/app_redirect?team=%s&channel=%s&message_ts=%s",
			workspaceID, channelID, ts)
	}
	return fmt.Sprintf("https://app.slack.com/client/%s/thread/%s/%s",
		channelID, channelID, strings.ReplaceAll(ts, ".", ""))
}

// Sources is the ordered list of source links of an article, oldest first.
type Sources []string

// Render emits the footer block: the singular "**Source:**" form for a
// single entry, a "**Sources:**" bullet list otherwise.
func (s Sources) Render() string {
	if len(s) == 1 {
		return sourceMarker + " " + s[0]
	}
	var b strings.Builder
	b.WriteString(sourcesMarker)
	for _, entry := range s {
		b.WriteString("\n- ")
		b.WriteString(entry)
	}
	return b.String()
}

// parseSources reads the entries of a footer block. The block starts at
// the marker line (the rule is not part of it).
func parseSources(block []Line) Sources {
	var sources Sources
	var loose []string
	for _, l := range block {
		trimmed := strings.TrimSpace(l.Text)
		switch {
		case trimmed == "":
			continue
		case l.Kind == KindSources:
			rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(trimmed, sourcesMarker), sourceMarker))
			if rest != "" {
				loose = append(loose, rest)
			}
		case strings.HasPrefix(trimmed, "- "):
			sources = append(sources, strings.TrimSpace(trimmed[2:]))
		default:
			loose = append(loose, trimmed)
		}
	}
	if len(loose) == 0 {
		return sources
	}

	// A single link-shaped leftover is the singular footer's entry. Any
	// other content is malformed and preserved behind a synthetic link.
	text := strings.Join(loose, " ")
	if len(loose) == 1 && linkPattern.MatchString(text) {
		return append(Sources{text}, sources...)
	}
	return append(Sources{SourceLink(text)}, sources...)
}
