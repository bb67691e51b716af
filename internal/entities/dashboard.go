package entities

type DashboardTotals struct {
	Customers            uint64 `json:"customers"`
	Appointments         uint64 `json:"appointments"`
	UpcomingAppointments uint64 `json:"upcoming_appointments"`
	ContactHistories     uint64 `json:"contact_histories"`
	Orders               uint64 `json:"orders"`
	Revenue              string `json:"revenue"`
}

// GroupCount is one bucket of a grouped count. A nil ID is the
// "not set" bucket.
type GroupCount struct {
	Dimension string `json:"dimension"`
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	Count     uint64 `json:"count"`
}

type Dashboard struct {
	Totals               DashboardTotals  `json:"totals"`
	GroupedCounts        []GroupCount     `json:"grouped_counts"`
	RecentActivity       []ContactHistory `json:"recent_activity"`
	UpcomingAppointments []Appointment    `json:"upcoming_appointments"`
}
