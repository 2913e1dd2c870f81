package models

import "math"

// DefaultPageSize is the number of records returned per listing page.
const DefaultPageSize = 20

// MaxPage is the highest page number accepted from clients. Offsets for
// pages up to it fit in an int32.
const MaxPage = math.MaxInt32 / DefaultPageSize

// Pagination contains pagination metadata returned in list responses.
// Pages are zero-based.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count,omitempty"`
}

// PageCount returns ceil(total / pageSize).
func PageCount(total int64, pageSize int) int64 {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}

// Offset returns the number of records preceding page. ok is false when the
// offset does not fit in an int32, in which case the page is necessarily
// empty. Negative pages read as the first page.
func Offset(page, pageSize int) (offset int, ok bool) {
	if page <= 0 || pageSize <= 0 {
		return 0, true
	}
	if page > math.MaxInt32/pageSize {
		return 0, false
	}
	return page * pageSize, true
}
