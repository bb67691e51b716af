package dto

import "github.com/aarondl/null/v8"

type CreateLookupDTO struct {
	Name   string    `json:"name" validate:"required,max=255"`
	Active null.Bool `json:"active"`
}

type UpdateLookupDTO struct {
	Name   null.String `json:"name" validate:"omitempty,max=255"`
	Active null.Bool   `json:"active"`
}
