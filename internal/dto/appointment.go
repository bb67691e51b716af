package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateAppointmentDTO struct {
	CustomerID      int64       `json:"customer_id" validate:"required,gt=0"`
	Title           string      `json:"title" validate:"required,max=255"`
	Description     null.String `json:"description"`
	ScheduledAt     time.Time   `json:"scheduled_at" validate:"required"`
	DurationMinutes int         `json:"duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	Status          string      `json:"status" validate:"omitempty,appointment_status"`
	ReminderMinutes []int       `json:"reminder_minutes" validate:"omitempty,max=10,dive,gte=0,lte=10080"`
	AssignedTo      null.Int64  `json:"assigned_to" validate:"omitempty,gt=0"`
}

// UpdateAppointmentDTO is a partial update. Status may be overwritten with
// any valid value.
type UpdateAppointmentDTO struct {
	Title           null.String `json:"title" validate:"omitempty,max=255"`
	Description     null.String `json:"description"`
	ScheduledAt     null.Time   `json:"scheduled_at"`
	DurationMinutes null.Int    `json:"duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	Status          null.String `json:"status" validate:"omitempty,appointment_status"`
	ReminderMinutes []int       `json:"reminder_minutes" validate:"omitempty,max=10,dive,gte=0,lte=10080"`
	AssignedTo      null.Int64  `json:"assigned_to" validate:"omitempty,gt=0"`
}
