package enums

import "fmt"

// ItemSort represents the orderings accepted by the catalog listing.
type ItemSort string

const (
	ItemSortNewest    ItemSort = "newest"
	ItemSortPriceAsc  ItemSort = "price_asc"
	ItemSortPriceDesc ItemSort = "price_desc"
)

var validItemSorts = []ItemSort{
	ItemSortNewest,
	ItemSortPriceAsc,
	ItemSortPriceDesc,
}

// String implements fmt.Stringer.
func (s ItemSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemSort.
func (s ItemSort) IsValid() bool {
	for _, candidate := range validItemSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemSort converts raw input into an ItemSort. Empty input selects
// the newest-first default.
func ParseItemSort(value string) (ItemSort, error) {
	if value == "" {
		return ItemSortNewest, nil
	}
	for _, candidate := range validItemSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item sort %q", value)
}
