package dto

import "github.com/aarondl/null/v8"

type CreatePaymentDTO struct {
	CustomerID      int64       `json:"customer_id" validate:"required,gt=0"`
	OrderID         null.Int64  `json:"order_id" validate:"omitempty,gt=0"`
	Amount          float64     `json:"amount" validate:"gt=0"`
	Currency        string      `json:"currency" validate:"omitempty,currency"`
	Method          string      `json:"method" validate:"required,payment_method"`
	Status          string      `json:"status" validate:"omitempty,payment_status"`
	ReferenceNumber null.String `json:"reference_number" validate:"omitempty,max=128"`
	PaidAt          null.Time   `json:"paid_at"`
	Notes           null.String `json:"notes"`
}

type UpdatePaymentDTO struct {
	Status          null.String `json:"status" validate:"omitempty,payment_status"`
	ReferenceNumber null.String `json:"reference_number" validate:"omitempty,max=128"`
	PaidAt          null.Time   `json:"paid_at"`
	Notes           null.String `json:"notes"`
}
