package entities

import (
	"github.com/aarondl/null/v8"

	"sales-crm/pkg/types"
)

type ContactHistory struct {
	ID              int64       `json:"id"`
	Customer        types.Ref   `json:"customer"`
	Type            string      `json:"type"`
	Subject         string      `json:"subject"`
	Notes           string      `json:"notes"`
	Outcome         null.String `json:"outcome"`
	NextStep        null.String `json:"next_step"`
	DurationMinutes null.Int    `json:"duration_minutes"`
	CreatedBy       types.Ref   `json:"created_by"`
	CustomerOwnerID int64       `json:"-"`
	types.BaseEntity
}

type ContactHistoryWrite struct {
	CustomerID      int64
	Type            string
	Subject         string
	Notes           string
	Outcome         null.String
	NextStep        null.String
	DurationMinutes null.Int
	ActorID         int64
}
