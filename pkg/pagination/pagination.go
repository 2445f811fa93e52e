package pagination

import "fmt"

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 24
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 100
)

// Params holds 1-indexed page pagination inputs from controllers or services.
type Params struct {
	PageSize   int
	PageNumber int
}

// Validate rejects non-positive page sizes and numbers.
func (p Params) Validate() error {
	if p.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", p.PageSize)
	}
	if p.PageNumber <= 0 {
		return fmt.Errorf("page number must be positive, got %d", p.PageNumber)
	}
	return nil
}

// Offset is the number of rows skipped before the requested page.
func (p Params) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// Limit is the number of rows on a full page.
func (p Params) Limit() int {
	return p.PageSize
}

// NormalizePageSize enforces the default and maxPageSize limits. A
// non-positive max falls back to MaxPageSize.
func NormalizePageSize(size, defaultSize, maxPageSize int) int {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// PageCount returns ceil(total / pageSize).
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
