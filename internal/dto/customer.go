package dto

import "github.com/aarondl/null/v8"

// CustomerDTO is used for both create and update. Update replaces every
// field, including the product set.
type CustomerDTO struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Phone       null.String `json:"phone" validate:"omitempty,phone"`
	Email       null.String `json:"email" validate:"omitempty,email,max=255"`
	Address     null.String `json:"address" validate:"omitempty,max=1000"`
	CompanyName null.String `json:"company_name" validate:"omitempty,max=255"`
	TaxCode     null.String `json:"tax_code" validate:"omitempty,max=64"`
	Website     null.String `json:"website" validate:"omitempty,max=255"`

	CustomerTypeID  null.Int64 `json:"customer_type_id" validate:"omitempty,gt=0"`
	BusinessTypeID  null.Int64 `json:"business_type_id" validate:"omitempty,gt=0"`
	CompanySizeID   null.Int64 `json:"company_size_id" validate:"omitempty,gt=0"`
	ProvinceID      null.Int64 `json:"province_id" validate:"omitempty,gt=0"`
	LeadSourceID    null.Int64 `json:"lead_source_id" validate:"omitempty,gt=0"`
	StageID         null.Int64 `json:"stage_id" validate:"omitempty,gt=0"`
	TemperatureID   null.Int64 `json:"temperature_id" validate:"omitempty,gt=0"`
	ContactStatusID null.Int64 `json:"contact_status_id" validate:"omitempty,gt=0"`

	AssignedSalesperson null.Int64 `json:"assigned_salesperson" validate:"omitempty,gt=0"`

	Feedback   null.String `json:"feedback"`
	Notes      null.String `json:"notes"`
	ProductIDs []int64     `json:"product_ids" validate:"omitempty,dive,gt=0"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResultDTO struct {
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors"`
}
