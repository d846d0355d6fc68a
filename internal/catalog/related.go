package catalog

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/query"
)

// NamePattern builds the case-insensitive alternation used to find products
// with similar names. Single-character tokens are ignored and each token is
// matched literally. ok is false when no token survives, in which case the
// name should not be matched at all.
func NamePattern(name string) (pattern string, ok bool) {
	var tokens []string
	for _, token := range strings.Fields(name) {
		if utf8.RuneCountInString(token) > 1 {
			tokens = append(tokens, regexp.QuoteMeta(token))
		}
	}
	if len(tokens) == 0 {
		return "", false
	}
	return strings.Join(tokens, "|"), true
}

// RelatedFilter matches every other product that shares a name token or the
// category with anchor.
func RelatedFilter(anchor *domain.Product) query.Predicate {
	either := query.Or{}
	if pattern, ok := NamePattern(anchor.Name); ok {
		either = append(either, query.Regex{Field: FieldName, Pattern: pattern})
	}
	either = append(either, query.Eq{Field: FieldCategory, Value: string(anchor.Category)})

	return query.And{
		query.Ne{Field: FieldID, Value: anchor.ID},
		either,
	}
}
