package aggregate

// DefaultPageSize matches the dashboard table
const DefaultPageSize = 10

// Page is one slice of a paginated result. Pages are 1-based.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns the requested page, clamping page into [1, TotalPages].
// An empty input yields one empty page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(items),
		TotalPages: totalPages,
	}
}
