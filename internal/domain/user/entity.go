package user

import "time"

// Role represents a lab member role
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

var RoleValues = []string{
	string(RoleStudent),
	string(RoleProfessor),
	string(RoleAdmin),
}

// IsValid reports whether the role is a known lab role
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role carries operator privileges
func (r Role) IsStaff() bool {
	return r == RoleProfessor || r == RoleAdmin
}

// User represents a lab member
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
