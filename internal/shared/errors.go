package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrTableNotFound = fmt.Errorf("tracking table not found")

	// Platform lookup errors
	ErrChannelNotFound = fmt.Errorf("channel not found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrAmbiguousUser   = fmt.Errorf("multiple users matched")

	// Sync errors
	ErrQuotaExceeded = fmt.Errorf("candidate count exceeds insertion cap")
	ErrRunFailed     = fmt.Errorf("sync run finished with errors")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
