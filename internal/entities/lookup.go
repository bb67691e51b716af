package entities

import (
	"strings"

	"sales-crm/pkg/types"
)

// LookupTable names one of the reference tables. The set is closed; only
// values from LookupTables ever reach SQL.
type LookupTable string

const (
	LookupCustomerTypes   LookupTable = "customer_types"
	LookupBusinessTypes   LookupTable = "business_types"
	LookupCompanySizes    LookupTable = "company_sizes"
	LookupProvinces       LookupTable = "provinces"
	LookupLeadSources     LookupTable = "lead_sources"
	LookupStages          LookupTable = "stages"
	LookupTemperatures    LookupTable = "temperatures"
	LookupContactStatuses LookupTable = "contact_statuses"
	LookupProducts        LookupTable = "products"
)

var LookupTables = []LookupTable{
	LookupCustomerTypes,
	LookupBusinessTypes,
	LookupCompanySizes,
	LookupProvinces,
	LookupLeadSources,
	LookupStages,
	LookupTemperatures,
	LookupContactStatuses,
	LookupProducts,
}

// ParseLookupTable accepts both "customer_types" and "customer-types".
func ParseLookupTable(name string) (LookupTable, bool) {
	normalized := LookupTable(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for _, t := range LookupTables {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

type LookupItem struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
	types.BaseEntity
}
