package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is what a user may do inside a company
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Company is a bookkeeping tenant; Role is the caller's role in it
type Company struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Role      MemberRole `json:"role,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
