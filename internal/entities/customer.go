package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"sales-crm/pkg/types"
)

type Customer struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Phone       null.String `json:"phone"`
	Email       null.String `json:"email"`
	Address     null.String `json:"address"`
	CompanyName null.String `json:"company_name"`
	TaxCode     null.String `json:"tax_code"`
	Website     null.String `json:"website"`

	CustomerType  *types.Ref `json:"customer_type,omitempty"`
	BusinessType  *types.Ref `json:"business_type,omitempty"`
	CompanySize   *types.Ref `json:"company_size,omitempty"`
	Province      *types.Ref `json:"province,omitempty"`
	LeadSource    *types.Ref `json:"lead_source,omitempty"`
	Stage         *types.Ref `json:"stage,omitempty"`
	Temperature   *types.Ref `json:"temperature,omitempty"`
	ContactStatus *types.Ref `json:"contact_status,omitempty"`

	AssignedSalesperson types.Ref `json:"assigned_salesperson"`

	Feedback null.String `json:"feedback"`
	Notes    null.String `json:"notes"`
	Products []types.Ref `json:"products"`

	LatestContact   *LatestContact   `json:"latest_contact,omitempty"`
	AppointmentInfo *AppointmentInfo `json:"appointment_info,omitempty"`

	CreatedBy *types.Ref `json:"created_by,omitempty"`
	UpdatedBy *types.Ref `json:"updated_by,omitempty"`
	types.BaseEntity
}

type LatestContact struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

type AppointmentInfo struct {
	NextAppointmentID int64      `json:"next_appointment_id,omitempty"`
	NextTitle         string     `json:"next_title,omitempty"`
	NextScheduledAt   *time.Time `json:"next_scheduled_at,omitempty"`
	UpcomingCount     int        `json:"upcoming_count"`
}

// CustomerWrite is the resolved storage input. Lookup ids are nullable;
// AssignedSalesperson is already decided by the access policy.
type CustomerWrite struct {
	Name        string
	Phone       null.String
	Email       null.String
	Address     null.String
	CompanyName null.String
	TaxCode     null.String
	Website     null.String

	CustomerTypeID  null.Int64
	BusinessTypeID  null.Int64
	CompanySizeID   null.Int64
	ProvinceID      null.Int64
	LeadSourceID    null.Int64
	StageID         null.Int64
	TemperatureID   null.Int64
	ContactStatusID null.Int64

	AssignedSalesperson int64
	Feedback            null.String
	Notes               null.String
	ProductIDs          []int64
	ActorID             int64
}
