package user

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")

	ErrProfessorAccessRequired = errors.New("professor access required")
	ErrAdminAccessRequired     = errors.New("admin access required")
)
