package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"sales-crm/pkg/types"
)

// Money fields hold fixed two-decimal strings, e.g. "449.98".
type Order struct {
	ID              int64       `json:"id"`
	Customer        types.Ref   `json:"customer"`
	OrderNumber     string      `json:"order_number"`
	TotalAmount     string      `json:"total_amount"`
	Currency        string      `json:"currency"`
	Status          string      `json:"status"`
	LicenseType     null.String `json:"license_type"`
	OrderDate       time.Time   `json:"order_date"`
	StartDate       null.Time   `json:"start_date"`
	EndDate         null.Time   `json:"end_date"`
	Notes           null.String `json:"notes"`
	Items           []OrderItem `json:"items"`
	PaidAmount      string      `json:"paid_amount"`
	CreatedBy       types.Ref   `json:"created_by"`
	CustomerOwnerID int64       `json:"-"`
	types.BaseEntity
}

type OrderItem struct {
	ID          int64      `json:"id"`
	Product     *types.Ref `json:"product,omitempty"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   string     `json:"unit_price"`
	TotalPrice  string     `json:"total_price"`
}

type OrderWrite struct {
	CustomerID  int64
	OrderNumber string
	TotalAmount string
	Currency    string
	Status      string
	LicenseType null.String
	OrderDate   time.Time
	StartDate   null.Time
	EndDate     null.Time
	Notes       null.String
	Items       []OrderItemWrite
	ActorID     int64
}

type OrderItemWrite struct {
	ProductID   null.Int64
	ProductName string
	Quantity    int
	UnitPrice   string
	TotalPrice  string
}
