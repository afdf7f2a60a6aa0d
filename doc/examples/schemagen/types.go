// Package schemagen provides example types for schemagen documentation.
package schemagen

import "time"

// [snippet:user-type]

// User is a registered account.
type User struct {
	ID        int64     `json:"id" jsonschema:"required"`
	Name      string    `json:"name" jsonschema:"description=Display name"`
	Email     string    `json:"email,omitempty"`
	Avatar    *string   `json:"avatar"` // nullable
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is the access level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// [/snippet:user-type]
