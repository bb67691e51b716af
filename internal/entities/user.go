package entities

import (
	"github.com/aarondl/null/v8"

	"sales-crm/pkg/types"
)

type User struct {
	ID           int64       `json:"id" db:"id"`
	Email        string      `json:"email" db:"email"`
	Name         string      `json:"name" db:"name"`
	Phone        null.String `json:"phone" db:"phone"`
	Role         string      `json:"role" db:"role"`
	Active       bool        `json:"active" db:"active"`
	PasswordHash string      `json:"-" db:"password_hash"`
	types.BaseEntity
}

// UserWrite is the storage input for create and update. An empty
// PasswordHash on update keeps the current one.
type UserWrite struct {
	Email        string
	Name         string
	Phone        null.String
	Role         string
	Active       bool
	PasswordHash string
}
