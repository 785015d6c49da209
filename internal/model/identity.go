package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is a closed set. Projection code switches exhaustively over it so a
// new role forces every projection site to be revisited.
type Role int

const (
	RoleAdmin Role = iota
	RoleEmployee
	RoleDoctor
	RolePatient
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleEmployee:
		return "employee"
	case RoleDoctor:
		return "doctor"
	case RolePatient:
		return "patient"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func RoleFromString(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "employee":
		return RoleEmployee, nil
	case "doctor":
		return RoleDoctor, nil
	case "patient":
		return RolePatient, nil
	}
	return RoleAdmin, fmt.Errorf("unknown role %q", s)
}

// Identity is the request-scoped caller identity. The engine never reads
// auth state from anywhere else.
type Identity struct {
	Role    Role
	Subject uuid.UUID
	// CaseRef is set for portal callers instead of Subject.
	CaseRef string
}

func (i Identity) IsStaff() bool {
	return i.Role == RoleAdmin || i.Role == RoleEmployee
}
