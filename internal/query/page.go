package query

import "math"

// Page is one page of a filtered listing. Requesting a page past the
// end yields an empty Items slice, never an error.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// NewPage assembles page metadata from the fragment that produced items.
func NewPage[T any](items []T, total int, f Fragment) Page[T] {
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: int(math.Ceil(float64(total) / float64(f.PerPage))),
	}
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }
