package domain

import "math"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// MaxPage keeps (Page-1)*Limit within int for every allowed limit.
	MaxPage = math.MaxInt / MaxPageLimit
)

// PageRequest selects one page of a listing. Page is 1-indexed.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest builds a PageRequest from optional query values.
// Missing or non-positive values fall back to page 1 and DefaultPageLimit;
// Page is clamped to MaxPage and Limit to MaxPageLimit.
func NewPageRequest(page, limit *int) PageRequest {
	p := PageRequest{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page > 0 {
		p.Page = min(*page, MaxPage)
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the number of rows to skip before this page. It saturates at
// math.MaxInt instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Bounds returns the [start, end) slice indices of this page within a
// listing of total items.
func (p PageRequest) Bounds(total int) (start, end int) {
	start = min(p.Offset(), total)
	end = start + min(max(p.Limit, 0), total-start)
	return start, end
}
