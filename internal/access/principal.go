// AngelaMos | 2026
// principal.go

package access

import (
	"fmt"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Role string

const (
	RoleEngineer Role = "engineer"
	RoleManager  Role = "manager"
	RoleObserver Role = "observer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEngineer, RoleManager, RoleObserver:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("role %q: %w", s, core.ErrInvalidInput)
	}
	return r, nil
}

// Principal is the authenticated actor. It is produced once per request
// by the transport layer and handed to every service call explicitly.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsManager() bool {
	return p.Role == RoleManager
}

// Ownership is the part of a defect the access rules look at: who filed
// it and who it is assigned to.
type Ownership struct {
	CreatedBy  string
	AssignedTo *string
}

func (o Ownership) InvolvesUser(userID string) bool {
	if userID == "" {
		return false
	}
	if o.CreatedBy == userID {
		return true
	}
	return o.AssignedTo != nil && *o.AssignedTo == userID
}
