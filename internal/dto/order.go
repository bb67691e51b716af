package dto

import "github.com/aarondl/null/v8"

type OrderItemDTO struct {
	ProductID   null.Int64 `json:"product_id" validate:"omitempty,gt=0"`
	ProductName string     `json:"product_name" validate:"max=255"`
	Quantity    int        `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	UnitPrice   float64    `json:"unit_price" validate:"gte=0"`
}

// CreateOrderDTO: TotalAmount, when given, wins over the sum of the items.
type CreateOrderDTO struct {
	CustomerID  int64          `json:"customer_id" validate:"required,gt=0"`
	Currency    string         `json:"currency" validate:"omitempty,currency"`
	Status      string         `json:"status" validate:"omitempty,order_status"`
	LicenseType null.String    `json:"license_type" validate:"omitempty,max=64"`
	OrderDate   null.Time      `json:"order_date"`
	StartDate   null.Time      `json:"start_date"`
	EndDate     null.Time      `json:"end_date"`
	Notes       null.String    `json:"notes"`
	TotalAmount null.String    `json:"total_amount"`
	Items       []OrderItemDTO `json:"items" validate:"omitempty,dive"`
}

type UpdateOrderDTO struct {
	Status      null.String `json:"status" validate:"omitempty,order_status"`
	LicenseType null.String `json:"license_type" validate:"omitempty,max=64"`
	StartDate   null.Time   `json:"start_date"`
	EndDate     null.Time   `json:"end_date"`
	Notes       null.String `json:"notes"`
}
