package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidState        = errors.New("diagnosis is not in progress")
	ErrDiagnosisInProgress = errors.New("an in-progress diagnosis already exists")
	ErrPlanLimitReached    = errors.New("diagnosis limit reached for plan")
)
