package bunindex

import (
	"strings"
	"unicode"
)

// column maps an index field path to the SQL column holding it. Boost
// suffixes are dropped, nested paths are flattened with underscores and
// camelCase is split: "title^3" -> "title", "genres.id" -> "genres_id",
// "imdbRating" -> "imdb_rating".
func column(field string) string {
	if i := strings.IndexByte(field, '^'); i >= 0 {
		field = field[:i]
	}

	runes := []rune(field)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		switch {
		case r == '.' || r == '-' || r == '_' || unicode.IsSpace(r):
			sep(&b)
		case unicode.IsUpper(r):
			if i > 0 && wordBreak(runes, i) {
				sep(&b)
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// wordBreak reports whether the upper-case rune at i starts a new word:
// after a lower-case letter or digit ("imdbRating"), or as the last capital
// of an acronym ("HTTPServer").
func wordBreak(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// sep writes one underscore unless the builder is empty or already ends
// with one.
func sep(b *strings.Builder) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, "_") {
		b.WriteByte('_')
	}
}
