package database

const (
	SortDisplayOrder = "order"
	SortDateDesc     = "date_desc"
	SortDateAsc      = "date_asc"
	SortNameAsc      = "name_asc"
)

const DefaultSortOrder = SortDisplayOrder

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortDisplayOrder, SortDateDesc, SortDateAsc, SortNameAsc:
		return true
	default:
		return false
	}
}

// AlbumOrderClause maps a sort option to the ORDER BY used for album listings.
// Unknown values fall back to the public ordering.
func AlbumOrderClause(order string) string {
	switch order {
	case SortDateDesc:
		return "date DESC, id DESC"
	case SortDateAsc:
		return "date ASC, id ASC"
	case SortNameAsc:
		return "name ASC"
	default:
		return "display_order ASC, date DESC"
	}
}
