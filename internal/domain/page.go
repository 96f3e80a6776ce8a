package domain

// Page sizes for list endpoints (flights, audit log).
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects one 1-based page of a list ordered by the repo.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest resolves the optional page and limit query values. Missing
// or non-positive values take the defaults; limit is clamped to MaxPageSize.
func NewPageRequest(page, limit *int) PageRequest {
	p := PageRequest{Page: 1, Limit: DefaultPageSize}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageSize)
	}
	return p
}

// Offset is the number of rows before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages is the page count needed to show total rows at this limit.
func (p PageRequest) Pages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
