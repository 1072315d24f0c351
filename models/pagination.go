package models

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is a 1-based pagination request.
type Page struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps the page into its allowed range.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// PageResult is the payload of every list endpoint.
type PageResult[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func NewPageResult[T any](items []T, total int64, page Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if page.Limit > 0 {
		pages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	return PageResult[T]{
		Items: items,
		Pagination: Pagination{
			Total:      total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: pages,
		},
	}
}
