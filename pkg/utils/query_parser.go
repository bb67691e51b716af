package utils

import (
	"net/url"
	"strconv"
	"strings"

	"sales-crm/pkg/types"
)

var reservedParams = map[string]bool{
	"search": true, "page": true, "limit": true,
	"sort": true, "sortBy": true, "sortOrder": true, "order": true,
}

// ParseCriteria reads list parameters from a query string. Both
// filter[stage_id]=3 and stage_id=3 are accepted. sort=-name is shorthand for
// sortBy=name&sortOrder=desc. Unparseable page/limit fall back to defaults.
func ParseCriteria(query url.Values) types.Criteria {
	c := types.NewCriteria()

	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			c.Filters[key[7:len(key)-1]] = values[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			c.SortBy = key[5 : len(key)-1]
			c.SortDir = types.SortDirection(strings.ToLower(values[0]))
		case !reservedParams[key]:
			c.Filters[key] = values[0]
		}
	}

	c.Search = query.Get("search")

	if sort := query.Get("sort"); sort != "" {
		if strings.HasPrefix(sort, "-") {
			c.SortBy, c.SortDir = sort[1:], types.SortDesc
		} else {
			c.SortBy, c.SortDir = sort, types.SortAsc
		}
	}
	if by := query.Get("sortBy"); by != "" {
		c.SortBy = by
	}
	for _, key := range []string{"sortOrder", "order"} {
		if dir := query.Get(key); dir != "" {
			c.SortDir = types.SortDirection(strings.ToLower(dir))
		}
	}

	c.Page = 1
	if p, err := strconv.Atoi(query.Get("page")); err == nil {
		c.Page = p
	}
	c.Limit = types.DefaultLimit
	if l, err := strconv.Atoi(query.Get("limit")); err == nil {
		c.Limit = l
	}

	return c.Normalized()
}
