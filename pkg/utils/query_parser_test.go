package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"sales-crm/pkg/types"
)

func TestParseCriteria(t *testing.T) {
	q, _ := url.ParseQuery("search=acme&filter[stage_id]=3&province_id=7&sort=-name&page=2&limit=500")
	c := ParseCriteria(q)

	assert.Equal(t, "acme", c.Search)
	assert.Equal(t, "3", c.Filters["stage_id"])
	assert.Equal(t, "7", c.Filters["province_id"])
	assert.NotContains(t, c.Filters, "page")
	assert.Equal(t, "name", c.SortBy)
	assert.Equal(t, types.SortDesc, c.SortDir)
	assert.Equal(t, 2, c.Page)
	assert.Equal(t, types.MaxLimit, c.Limit)
}

func TestParseCriteria_Defaults(t *testing.T) {
	q, _ := url.ParseQuery("page=abc&limit=x&sortBy=updated&sortOrder=ASC")
	c := ParseCriteria(q)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, types.DefaultLimit, c.Limit)
	assert.Equal(t, "updated", c.SortBy)
	assert.Equal(t, types.SortAsc, c.SortDir)

	c = ParseCriteria(url.Values{"order": {"sideways"}})
	assert.Equal(t, types.SortDirection(""), c.SortDir)
}
