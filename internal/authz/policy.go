// Package authz decides what a caller may see and change. Every repository
// list/get path asks Policy.Scope for its mandatory predicate and every write
// path asks Policy.Authorize before touching storage.
package authz

import (
	sq "github.com/Masterminds/squirrel"

	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
)

type Role string

const (
	RoleAdmin    Role = constants.RoleAdmin
	RoleEmployee Role = constants.RoleEmployee
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID   int64
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.ID > 0 && c.Role == RoleAdmin
}

func (c Caller) IsEmployee() bool {
	return c.ID > 0 && c.Role == RoleEmployee
}

type Kind string

const (
	KindCustomer       Kind = "customer"
	KindAppointment    Kind = "appointment"
	KindContactHistory Kind = "contact_history"
	KindOrder          Kind = "order"
	KindPayment        Kind = "payment"
	KindLookup         Kind = "lookup"
	KindUser           Kind = "user"
	KindAudit          Kind = "audit"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Resource carries the ownership fields of a concrete row.
//
// Owner is the assigned salesperson of the customer itself or of the parent
// customer for child rows. AssignedTo is only meaningful for appointments.
type Resource struct {
	Kind       Kind
	ID         int64
	Owner      int64
	AssignedTo int64
}

// Table aliases the scope predicates are written against. Every scoped query
// must join the owning customer as "c" and, for appointments, select from "a".
const (
	CustomerOwnerColumn       = "c.assigned_salesperson"
	AppointmentAssigneeColumn = "a.assigned_to"
	UserIDColumn              = "u.id"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a deny into a Forbidden error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.NewForbiddenError(d.Reason)
}

const (
	ReasonNotAssigned    = "not assigned to you"
	ReasonAdminOnly      = "only administrators can perform this action"
	ReasonSelfDeactivate = "you cannot deactivate your own account"
	ReasonUnknownCaller  = "unknown caller"
)

var (
	matchAll  sq.Sqlizer = sq.Expr("TRUE")
	matchNone sq.Sqlizer = sq.Expr("FALSE")
)

type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// Scope returns the predicate a listing of kind must always include for caller.
func (p *Policy) Scope(caller Caller, kind Kind) sq.Sqlizer {
	switch {
	case caller.IsAdmin():
		return matchAll
	case !caller.IsEmployee():
		return matchNone
	}

	switch kind {
	case KindCustomer, KindContactHistory, KindOrder, KindPayment:
		return sq.Eq{CustomerOwnerColumn: caller.ID}
	case KindAppointment:
		return sq.Or{
			sq.Eq{AppointmentAssigneeColumn: caller.ID},
			sq.Eq{CustomerOwnerColumn: caller.ID},
		}
	case KindLookup:
		return matchAll
	case KindUser:
		return sq.Eq{UserIDColumn: caller.ID}
	default:
		return matchNone
	}
}

func (p *Policy) Authorize(caller Caller, action Action, res Resource) Decision {
	switch {
	case caller.IsAdmin():
		return p.authorizeAdmin(caller, action, res)
	case caller.IsEmployee():
		if action == ActionRead {
			return p.authorizeEmployeeRead(caller, res)
		}
		return p.authorizeEmployeeWrite(caller, action, res)
	default:
		return deny(ReasonUnknownCaller)
	}
}

func (p *Policy) authorizeAdmin(caller Caller, action Action, res Resource) Decision {
	if res.Kind == KindUser && action == ActionDelete && res.ID == caller.ID {
		return deny(ReasonSelfDeactivate)
	}
	return allow()
}

func (p *Policy) authorizeEmployeeRead(caller Caller, res Resource) Decision {
	switch res.Kind {
	case KindCustomer, KindContactHistory, KindOrder, KindPayment:
		if res.Owner == caller.ID {
			return allow()
		}
	case KindAppointment:
		if res.AssignedTo == caller.ID || res.Owner == caller.ID {
			return allow()
		}
	case KindLookup:
		return allow()
	case KindUser:
		if res.ID == caller.ID {
			return allow()
		}
	case KindAudit:
		return deny(ReasonAdminOnly)
	}
	return deny(ReasonNotAssigned)
}

func (p *Policy) authorizeEmployeeWrite(caller Caller, action Action, res Resource) Decision {
	switch res.Kind {
	case KindCustomer, KindContactHistory:
		if res.Owner == caller.ID {
			return allow()
		}
		return deny(ReasonNotAssigned)
	case KindAppointment:
		// narrower than read: owning the customer is not enough
		if res.AssignedTo == caller.ID {
			return allow()
		}
		return deny(ReasonNotAssigned)
	case KindOrder, KindPayment:
		if action == ActionDelete {
			return deny(ReasonAdminOnly)
		}
		if res.Owner == caller.ID {
			return allow()
		}
		return deny(ReasonNotAssigned)
	default:
		return deny(ReasonAdminOnly)
	}
}

// AssigneeForCreate resolves the salesperson of a new customer. Employees are
// always assigned to themselves; admins get the requested user or themselves.
func (p *Policy) AssigneeForCreate(caller Caller, requested int64) int64 {
	if caller.IsAdmin() && requested > 0 {
		return requested
	}
	return caller.ID
}

// AssigneeForUpdate resolves the salesperson after an update. A reassignment
// requested by a non-admin is silently dropped.
func (p *Policy) AssigneeForUpdate(caller Caller, current, requested int64) int64 {
	if caller.IsAdmin() && requested > 0 {
		return requested
	}
	return current
}
