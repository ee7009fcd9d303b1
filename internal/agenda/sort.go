package agenda

import (
	"sort"

	"github.com/kep-app/kep/internal/domain"
)

// SortItems orders items in place: defined priorities ascending first,
// then items without a priority by creation time, newest first.
func SortItems(items []domain.AgendaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Priority != nil && b.Priority != nil:
			return *a.Priority < *b.Priority
		case a.Priority != nil:
			return true
		case b.Priority != nil:
			return false
		default:
			return a.CreatedAt > b.CreatedAt
		}
	})
}
