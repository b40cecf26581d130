package analysis

import (
	"strings"
	"unicode"
)

// stopWords are dropped from specializations before indexing
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"and": {}, "or": {}, "but": {}, "nor": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
	"by": {}, "from": {}, "into": {}, "as": {}, "about": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "can": {}, "will": {},
	"like": {}, "such": {}, "etc": {},
}

// isKeywordDelimiter reports whether r separates specialization tokens
func isKeywordDelimiter(r rune) bool {
	switch r {
	case '-', '_', ',', '/', '(', ')':
		return true
	}
	return unicode.IsSpace(r)
}

// ExtractKeywords turns a free-text specialization into an ordered list of
// unique lowercase keywords. Stop words and empty tokens are dropped.
func ExtractKeywords(specialization string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(specialization), isKeywordDelimiter)

	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}
