package catalog

// Page is one page of a list view.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_previous"`
}

func newPage[T any](items []T, page, size int, total int64) Page[T] {
	pages := int((total + int64(size) - 1) / int64(size))
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// bounds converts a 1-based page number into limit and offset.
func bounds(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	return page, size, (page - 1) * size
}
