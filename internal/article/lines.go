package article

import "strings"

// LineKind classifies a single line of an article.
type LineKind int

const (
	// KindText is any line not covered by another kind.
	KindText LineKind = iota
	// KindBlank is an empty or whitespace-only line.
	KindBlank
	// KindHeading is a line starting with '#'.
	KindHeading
	// KindKeywords is a "**Keywords:** a, b" line.
	KindKeywords
	// KindRule is a "---" horizontal rule.
	KindRule
	// KindSources is a "**Source:**" or "**Sources:**" footer marker.
	KindSources
)

const (
	keywordsMarker = "**Keywords:**"
	sourceMarker   = "**Source:**"
	sourcesMarker  = "**Sources:**"
	horizontalRule = "---"
)

// String returns the kind name.
func (k LineKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindHeading:
		return "heading"
	case KindKeywords:
		return "keywords"
	case KindRule:
		return "rule"
	case KindSources:
		return "sources"
	default:
		return "text"
	}
}

// Line is one classified line of a document.
type Line struct {
	Kind LineKind
	Text string
}

// Tokenize splits doc on newlines and classifies every line.
// Joining the Text fields with "\n" reproduces doc exactly.
func Tokenize(doc string) []Line {
	raw := strings.Split(doc, "\n")
	lines := make([]Line, len(raw))
	for i, text := range raw {
		lines[i] = Line{Kind: classify(text), Text: text}
	}
	return lines
}

func classify(text string) LineKind {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return KindBlank
	case strings.HasPrefix(text, "#"):
		return KindHeading
	case strings.HasPrefix(trimmed, keywordsMarker):
		return KindKeywords
	case trimmed == horizontalRule:
		return KindRule
	case strings.HasPrefix(trimmed, sourcesMarker), strings.HasPrefix(trimmed, sourceMarker):
		return KindSources
	}
	return KindText
}

func join(lines []Line) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// first returns the index of the first line of the given kind, or -1.
func first(lines []Line, kind LineKind) int {
	for i, l := range lines {
		if l.Kind == kind {
			return i
		}
	}
	return -1
}
