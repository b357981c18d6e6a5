package model

// DefaultPageSize is the number of records shown per page in report and distress lists.
const DefaultPageSize = 10

// PageState describes one page of a filtered sequence.
type PageState struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalRecords int `json:"total_records"`
	TotalPages   int `json:"total_pages"`
}

// NewPageState computes the page count for total records. A non-positive size falls back
// to DefaultPageSize; page is stored as given.
func NewPageState(total, pageSize, page int) PageState {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return PageState{
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   PageCount(total, pageSize),
	}
}

// PageCount returns ceil(total / pageSize), or 0 for an empty sequence.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize < 1 {
		return 0
	}
	n := total / pageSize
	if total%pageSize != 0 {
		n++
	}
	return n
}

// Clamp returns page limited to [1, TotalPages]. An empty sequence clamps to 1.
func (p PageState) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if p.TotalPages > 0 && page > p.TotalPages {
		return p.TotalPages
	}
	if p.TotalPages == 0 {
		return 1
	}
	return page
}

// HasNext reports whether a page follows the current one.
func (p PageState) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether a page precedes the current one.
func (p PageState) HasPrev() bool { return p.Page > 1 }
