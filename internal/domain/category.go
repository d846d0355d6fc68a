package domain

import "strings"

// Category is one of the fixed product lines sold by the store.
type Category string

const (
	CategoryBags             Category = "حقائب"
	CategoryCovers           Category = "كڤرات"
	CategoryScreenProtectors Category = "حماية الشاشة"
	CategoryAccessories      Category = "إكسسوارات"
)

// Categories lists the allowed categories in display order.
var Categories = []Category{
	CategoryBags,
	CategoryCovers,
	CategoryScreenProtectors,
	CategoryAccessories,
}

// ParseCategory returns the Category for label, or false if label is not
// one of the allowed categories. Labels are matched exactly.
func ParseCategory(label string) (Category, bool) {
	switch c := Category(label); c {
	case CategoryBags, CategoryCovers, CategoryScreenProtectors, CategoryAccessories:
		return c, true
	default:
		return "", false
	}
}

// CategoryLabels returns the allowed labels joined for error messages.
func CategoryLabels() string {
	labels := make([]string, len(Categories))
	for i, c := range Categories {
		labels[i] = string(c)
	}
	return strings.Join(labels, "، ")
}

func (c Category) String() string {
	return string(c)
}
