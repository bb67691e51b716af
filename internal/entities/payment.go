package entities

import (
	"github.com/aarondl/null/v8"

	"sales-crm/pkg/types"
)

type OrderRef struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
}

type Payment struct {
	ID              int64       `json:"id"`
	Customer        types.Ref   `json:"customer"`
	Order           *OrderRef   `json:"order,omitempty"`
	PaymentNumber   string      `json:"payment_number"`
	Amount          string      `json:"amount"`
	Currency        string      `json:"currency"`
	Method          string      `json:"method"`
	Status          string      `json:"status"`
	ReferenceNumber null.String `json:"reference_number"`
	PaidAt          null.Time   `json:"paid_at"`
	Notes           null.String `json:"notes"`
	CreatedBy       types.Ref   `json:"created_by"`
	CustomerOwnerID int64       `json:"-"`
	types.BaseEntity
}

type PaymentWrite struct {
	CustomerID      int64
	OrderID         null.Int64
	PaymentNumber   string
	Amount          string
	Currency        string
	Method          string
	Status          string
	ReferenceNumber null.String
	PaidAt          null.Time
	Notes           null.String
	ActorID         int64
}
