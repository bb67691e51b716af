package types

import (
	"math"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside a bigint OFFSET.
	MaxPage = math.MaxInt64 / MaxLimit
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Criteria is a parsed list request. Filter values are kept as raw strings;
// each repository decides which names it understands and how to parse them.
// Absent and empty values impose no constraint.
type Criteria struct {
	Filters map[string]string `json:"filters,omitempty"`
	Search  string            `json:"search,omitempty"`
	SortBy  string            `json:"sort_by,omitempty"`
	SortDir SortDirection     `json:"sort_dir,omitempty"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
}

func NewCriteria() Criteria {
	return Criteria{Filters: map[string]string{}, Page: 1, Limit: DefaultLimit}
}

// With returns a copy with one more filter set.
func (c Criteria) With(name, value string) Criteria {
	filters := make(map[string]string, len(c.Filters)+1)
	for k, v := range c.Filters {
		filters[k] = v
	}
	filters[name] = value
	c.Filters = filters
	return c
}

// Value returns the trimmed filter value and whether it is present.
func (c Criteria) Value(name string) (string, bool) {
	v, ok := c.Filters[name]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Normalized clamps paging: page in [1, MaxPage], limit in [1, MaxLimit],
// 0 means default.
func (c Criteria) Normalized() Criteria {
	switch {
	case c.Page < 1:
		c.Page = 1
	case c.Page > MaxPage:
		c.Page = MaxPage
	}
	switch {
	case c.Limit == 0:
		c.Limit = DefaultLimit
	case c.Limit < 1:
		c.Limit = 1
	case c.Limit > MaxLimit:
		c.Limit = MaxLimit
	}
	if c.SortDir != SortAsc && c.SortDir != SortDesc {
		c.SortDir = ""
	}
	c.Search = strings.TrimSpace(c.Search)
	return c
}

func (c Criteria) Offset() uint64 {
	n := c.Normalized()
	return uint64(n.Page-1) * uint64(n.Limit)
}

// Pagination is the list envelope metadata.
type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}

func NewPagination(total uint64, page, limit int) Pagination {
	p := Pagination{TotalCount: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}
	return p
}
