package dto

import "github.com/aarondl/null/v8"

type CreateContactHistoryDTO struct {
	CustomerID      int64       `json:"customer_id" validate:"required,gt=0"`
	Type            string      `json:"type" validate:"required,contact_type"`
	Subject         string      `json:"subject" validate:"required,max=255"`
	Notes           string      `json:"notes"`
	Outcome         null.String `json:"outcome"`
	NextStep        null.String `json:"next_step"`
	DurationMinutes null.Int    `json:"duration_minutes" validate:"omitempty,gte=0"`
}
