package domain

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items   []T
	Number  int // 1-based
	PerPage int
	Total   int
}

func (p Page[T]) TotalPages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages() }

// Offset is the number of rows to skip for a 1-based page number.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
