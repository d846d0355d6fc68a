package catalog

import (
	"strconv"
	"strings"

	"storefront-catalog/internal/query"
)

const (
	// AllValues disables the category or color filter.
	AllValues = "all"

	// PowderHennaCategory is the only category whose listings filter by size.
	PowderHennaCategory = "حناء بودر"
)

// Column names filters may reference.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldCategory = "category"
	FieldColor    = "color"
	FieldSize     = "size"
	FieldPrice    = "price"
)

// ListParams are the listing query parameters exactly as received.
type ListParams struct {
	Category string
	Size     string
	Color    string
	MinPrice string
	MaxPrice string
	Page     string
	Limit    string
}

// BuildListFilter turns listing parameters into a predicate. Unknown or
// unparsable values are dropped silently; no parameter is ever rejected.
func BuildListFilter(p ListParams) query.Predicate {
	filter := query.And{}

	if p.Category != "" && p.Category != AllValues {
		filter = append(filter, query.Eq{Field: FieldCategory, Value: p.Category})

		if p.Category == PowderHennaCategory && p.Size != "" {
			filter = append(filter, query.Eq{Field: FieldSize, Value: p.Size})
		}
	}

	if p.Color != "" && p.Color != AllValues {
		filter = append(filter, query.Eq{Field: FieldColor, Value: p.Color})
	}

	if p.MinPrice != "" && p.MaxPrice != "" {
		lo, loErr := strconv.ParseFloat(strings.TrimSpace(p.MinPrice), 64)
		hi, hiErr := strconv.ParseFloat(strings.TrimSpace(p.MaxPrice), 64)
		if loErr == nil && hiErr == nil {
			filter = append(filter, query.Range{Field: FieldPrice, Min: lo, Max: hi})
		}
	}

	return filter
}
