package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"sales-crm/pkg/types"
)

type Appointment struct {
	ID              int64       `json:"id"`
	Customer        types.Ref   `json:"customer"`
	Title           string      `json:"title"`
	Description     null.String `json:"description"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Status          string      `json:"status"`
	ReminderMinutes []int       `json:"reminder_minutes"`
	CreatedBy       types.Ref   `json:"created_by"`
	AssignedTo      types.Ref   `json:"assigned_to"`
	// owner of the parent customer, used for authorization only
	CustomerOwnerID int64 `json:"-"`
	types.BaseEntity
}

type AppointmentWrite struct {
	CustomerID      int64
	Title           string
	Description     null.String
	ScheduledAt     time.Time
	DurationMinutes int
	Status          string
	ReminderMinutes []int
	AssignedTo      int64
	ActorID         int64
}
