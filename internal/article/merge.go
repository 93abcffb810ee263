package article

import "strings"

const (
	// MaxKeywords caps the keyword list of a merged article.
	MaxKeywords = 10

	additionalContextHeading = "## Additional Context"
)

// Document is an article split into its body and its sources footer.
type Document struct {
	// Body is everything before the footer's rule.
	Body string
	// Sources holds the footer entries, empty when the article has none.
	Sources Sources
}

// Parse splits doc at the last "---" rule whose next non-blank line is a
// sources marker. Without such a rule the whole document is the body.
func Parse(doc string) Document {
	lines := Tokenize(doc)
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Kind != KindRule {
			continue
		}
		next := i + 1
		for next < len(lines) && lines[next].Kind == KindBlank {
			next++
		}
		if next < len(lines) && lines[next].Kind == KindSources {
			return Document{
				Body:    join(lines[:i]),
				Sources: parseSources(lines[next:]),
			}
		}
	}
	return Document{Body: doc}
}

// Merge extends an existing article with a newly generated summary. The
// result keeps the existing body, merges the keyword lists, appends the new
// summary's body under an "Additional Context" section and adds sourceLink
// to the footer.
func Merge(existing, summary, sourceLink string) string {
	doc := Parse(existing)
	bodyLines := Tokenize(strings.TrimSpace(doc.Body))
	summaryLines := Tokenize(summary)

	keywords := MergeKeywords(keywordsOf(bodyLines), keywordsOf(summaryLines), MaxKeywords)
	bodyLines = setKeywords(bodyLines, keywords)

	sources := append(doc.Sources, sourceLink)

	var b strings.Builder
	b.WriteString(join(bodyLines))
	b.WriteString("\n\n")
	b.WriteString(additionalContextHeading)
	b.WriteString("\n\n")
	b.WriteString(newContent(summaryLines, summary))
	b.WriteString("\n\n")
	b.WriteString(horizontalRule)
	b.WriteString("\n\n")
	b.WriteString(sources.Render())
	return b.String()
}

// FreshDocument is the content of an article created from summary alone.
func FreshDocument(summary, sourceLink string) string {
	return summary + "\n\n" + horizontalRule + "\n\n" + Sources{sourceLink}.Render()
}

// RecoveredDocument is used when a matched article could not be read. The
// footer uses the list form so later merges append to it.
func RecoveredDocument(summary, sourceLink string) string {
	return summary + "\n\n" + horizontalRule + "\n\n" + sourcesMarker + "\n- " + sourceLink
}

// setKeywords rewrites the first keywords line, or inserts one after the
// first heading when the body has none.
func setKeywords(lines []Line, keywords []string) []Line {
	if len(keywords) == 0 {
		return lines
	}
	kw := Line{Kind: KindKeywords, Text: formatKeywords(keywords)}
	if i := first(lines, KindKeywords); i >= 0 {
		lines[i] = kw
		return lines
	}
	title := first(lines, KindHeading)
	if title < 0 {
		return lines
	}
	out := make([]Line, 0, len(lines)+2)
	out = append(out, lines[:title+1]...)
	out = append(out, Line{Kind: KindBlank}, kw)
	return append(out, lines[title+1:]...)
}

// newContent drops the summary's leading title and keywords lines. A
// summary made only of those lines is used whole.
func newContent(lines []Line, summary string) string {
	for i, l := range lines {
		switch l.Kind {
		case KindBlank, KindHeading, KindKeywords:
			continue
		}
		return join(lines[i:])
	}
	return summary
}
