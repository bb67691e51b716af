package constants

//============== ROLES ==============

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

//============== APPOINTMENTS ==============

const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

var AppointmentStatuses = []string{
	AppointmentScheduled,
	AppointmentCompleted,
	AppointmentCancelled,
	AppointmentNoShow,
}

const DefaultAppointmentDuration = 30

//============== CONTACT HISTORY ==============

var ContactTypes = []string{"call", "email", "meeting", "zalo", "other"}

//============== ORDERS / PAYMENTS ==============

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

var OrderStatuses = []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

var PaymentStatuses = []string{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded}

var PaymentMethods = []string{"cash", "bank_transfer", "card", "other"}

const DefaultCurrency = "VND"

const (
	OrderNumberPrefix   = "ORD"
	PaymentNumberPrefix = "PAY"
)

//============== DASHBOARD ==============

const (
	DashboardUpcomingLimit = 5
	DashboardRecentLimit   = 5
)

//============== CACHE KEYS ==============

// Redis key formats.
const (
	// refresh_session:<session id> -> user id
	CacheKeyRefreshSession = "refresh_session:%s"
	// login_attempts:<email> -> failed attempts counter
	CacheKeyLoginAttempts = "login_attempts:%s"
)

//============== IMPORT ==============

const MaxImportFileSizeMB = 10

func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
