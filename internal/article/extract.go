package article

import "strings"

// FallbackTitle is used when a document has no heading.
const FallbackTitle = "Slack Thread Summary"

// ExtractTitle returns the text of the first heading in doc with the
// leading '#' characters and surrounding whitespace removed.
func ExtractTitle(doc string) string {
	lines := Tokenize(doc)
	if i := first(lines, KindHeading); i >= 0 {
		return strings.TrimSpace(strings.TrimLeft(lines[i].Text, "#"))
	}
	return FallbackTitle
}

// ExtractKeywords returns the items of the first keywords line in doc, in
// their original order. Empty items are dropped.
func ExtractKeywords(doc string) []string {
	return keywordsOf(Tokenize(doc))
}

func keywordsOf(lines []Line) []string {
	i := first(lines, KindKeywords)
	if i < 0 {
		return nil
	}
	return parseKeywords(lines[i].Text)
}

func parseKeywords(text string) []string {
	list := strings.TrimPrefix(strings.TrimSpace(text), keywordsMarker)
	var keywords []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			keywords = append(keywords, item)
		}
	}
	return keywords
}

func formatKeywords(keywords []string) string {
	return keywordsMarker + " " + strings.Join(keywords, ", ")
}

// MergeKeywords concatenates existing and added, removes duplicates keeping
// the first occurrence, and truncates the result to limit entries.
func MergeKeywords(existing, added []string, limit int) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	merged := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, kw := range list {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			merged = append(merged, kw)
		}
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
