package types

import "time"

type BaseEntity struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SoftDelete struct {
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Ref is a resolved foreign key: an id together with its display name.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
