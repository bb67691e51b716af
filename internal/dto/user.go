package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	Email    string      `json:"email" validate:"required,email,max=255"`
	Name     string      `json:"name" validate:"required,max=255"`
	Phone    null.String `json:"phone" validate:"omitempty,phone"`
	Role     string      `json:"role" validate:"required,role"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserDTO is a partial update: null fields keep their current value.
type UpdateUserDTO struct {
	Email    null.String `json:"email" validate:"omitempty,email,max=255"`
	Name     null.String `json:"name" validate:"omitempty,max=255"`
	Phone    null.String `json:"phone" validate:"omitempty,phone"`
	Role     null.String `json:"role" validate:"omitempty,role"`
	Active   null.Bool   `json:"active"`
	Password null.String `json:"password" validate:"omitempty,min=8,max=72"`
}
