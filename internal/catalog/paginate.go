package catalog

import (
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Page holds the paging window for one listing request.
type Page struct {
	Page       int
	Limit      int
	Skip       int
	TotalPages int
}

// ParsePage coerces the page parameter, falling back to DefaultPage when it
// is absent or not an integer. Zero and negative pages are kept.
func ParsePage(raw string) int {
	return parseInt(raw, DefaultPage)
}

// ParseLimit coerces the limit parameter. Absent, non-integer and
// non-positive limits fall back to DefaultLimit.
func ParseLimit(raw string) int {
	limit := parseInt(raw, DefaultLimit)
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Paginate computes the skip offset and page count for totalCount matches.
// Skip may be negative when page < 1; the persistence layer treats that as 0.
func Paginate(totalCount, page, limit int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Page{
		Page:       page,
		Limit:      limit,
		Skip:       (page - 1) * limit,
		TotalPages: (totalCount + limit - 1) / limit,
	}
}

func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
