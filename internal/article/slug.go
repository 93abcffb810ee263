package article

import "strings"

const (
	maxSlugLength = 50
	// minSignificantLength is the exclusive lower bound on the length of a
	// slug token that takes part in fuzzy matching.
	minSignificantLength = 3
)

// Slugify derives the filename slug for a title: lower-cased, a leading '#'
// removed, every run of characters outside [a-z0-9] collapsed to a single
// hyphen, leading and trailing hyphens trimmed, truncated to 50 characters.
//
// Distinct titles can produce the same slug; callers treat them as the same
// article.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(title, "#")))

	var b strings.Builder
	b.Grow(len(s))
	separator := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if separator && b.Len() > 0 {
				b.WriteByte('-')
			}
			separator = false
			b.WriteRune(r)
			continue
		}
		separator = true
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

// SignificantWords splits a slug on '-' and keeps the tokens longer than
// three characters.
func SignificantWords(slug string) []string {
	var words []string
	for _, w := range strings.Split(slug, "-") {
		if len(w) > minSignificantLength {
			words = append(words, w)
		}
	}
	return words
}
