package filter

// Paginate returns page (1-based) of records with pageSize entries per page.
// Pages outside the sequence yield an empty slice; they are not an error. A pageSize below 1
// also yields an empty slice.
func Paginate[T any](records []T, pageSize, page int) []T {
	if pageSize < 1 || page < 1 {
		return []T{}
	}
	// Compare page counts first; (page-1)*pageSize can overflow.
	if page-1 >= Pages(len(records), pageSize) {
		return []T{}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(records)-start)
	return records[start:end:end]
}
