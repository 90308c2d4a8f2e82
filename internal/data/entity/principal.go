package entity

import (
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Principal is the verified caller handed to every core operation. For a
// doctor, ID is the directory doctor id.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (p Principal) Valid() bool {
	return p.ID != uuid.Nil && p.Role.Valid()
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsPatient() bool { return p.Role == RolePatient }
func (p Principal) IsDoctor() bool  { return p.Role == RoleDoctor }
