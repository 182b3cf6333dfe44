// Package utils holds small helpers for page-based listing, shared by the
// HTTP handlers and the services behind them.
package utils

import "strconv"

// Page size bounds used by every listing endpoint.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not an integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage normalizes a 1-based page and a page size. A non-positive size
// becomes def; sizes above limit are cut to limit. limit 0 means unbounded.
func ClampPage(page, size, def, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if limit > 0 && size > limit {
		size = limit
	}
	return page, size
}

// Offset returns the row offset of a 1-based page.
func Offset(page, size int) int {
	if page < 1 || size < 1 {
		return 0
	}
	return (page - 1) * size
}

// TotalPages is ceil(total/size); zero when size is not positive.
func TotalPages(total int64, size int) int {
	if size < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
