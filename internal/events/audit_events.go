package events

const AuditEventName = "audit.recorded"

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionImport     = "import"
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionDeactivate = "deactivate"
)

// AuditEvent describes a completed write. Data is marshalled to JSON as the
// stored payload.
type AuditEvent struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID int64
	Data     interface{}
}

func (e AuditEvent) Name() string {
	return AuditEventName
}
