package utils

import (
	"net/http"
	"strconv"
)

// PaginationParams contains pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalItems int64       `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}

const (
	// DefaultPageSize is the default number of items per page
	DefaultPageSize = 20
	// MaxPageSize caps ledger and transfer listings
	MaxPageSize = 100
)

// ParsePaginationParams reads page and page_size from the query string
func ParsePaginationParams(r *http.Request) PaginationParams {
	q := r.URL.Query()
	page := ParseIntQuery(q.Get("page"), 1)
	pageSize := ParseIntQuery(q.Get("page_size"), DefaultPageSize)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// NewPage wraps one page of items. A nil slice is rendered as [] so clients
// never see "data": null.
func NewPage[T any](items []T, params PaginationParams, totalItems int64) PaginatedResponse {
	if items == nil {
		items = []T{}
	}

	size := int64(params.PageSize)
	if size < 1 {
		size = DefaultPageSize
	}

	return PaginatedResponse{
		Data:       items,
		Page:       params.Page,
		PageSize:   int(size),
		TotalItems: totalItems,
		TotalPages: int((totalItems + size - 1) / size),
	}
}

// ParseIntQuery parses an integer query value, falling back to defaultValue
func ParseIntQuery(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
