package search

import (
	"time"

	"merchandiser-backend/internal/domain"
)

// MaxPageSize caps every paged request. Limit 0 is not paged and not capped.
const MaxPageSize = 100

// NormalizePagination clamps page to >= 1, negative limits to 0 and positive
// limits to MaxPageSize.
func NormalizePagination(p domain.Pagination) domain.Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// BuildQuery assembles the store query for req, evaluated at now.
func BuildQuery(req domain.SearchRequest, now time.Time) (domain.SearchQuery, domain.Pagination) {
	page := NormalizePagination(req.Pagination)

	q := domain.SearchQuery{
		Predicates: BuildPredicates(req.Filter, now),
		Order:      ResolveSort(req.Sort),
		Limit:      page.Limit,
	}
	if page.Limit > 0 {
		q.Offset = (page.Page - 1) * page.Limit
	}
	return q, page
}

// NewPage wraps one page of rows. With limit 0 the single page holds every row.
func NewPage[T any](data []T, total int64, page domain.Pagination) *domain.PaginatedResult[T] {
	if data == nil {
		data = []T{}
	}

	result := &domain.PaginatedResult[T]{
		Data:     data,
		Total:    total,
		Page:     page.Page,
		PageSize: page.Limit,
	}
	if page.Limit == 0 {
		result.Page = 1
		result.PageSize = len(data)
		if total > 0 {
			result.TotalPages = 1
		}
		return result
	}

	totalPages := int(total) / page.Limit
	if int(total)%page.Limit > 0 {
		totalPages++
	}
	result.TotalPages = totalPages
	return result
}
