package alert

import "errors"

var (
	ErrAlertNotFound  = errors.New("alert not found")
	ErrConfigNotFound = errors.New("alert configuration not found")

	ErrInvalidAlertType = errors.New("invalid alert type")
	ErrInvalidSeverity  = errors.New("invalid severity")
)
