package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Command side, surfaced synchronously to the caller
	ErrValidation     = fmt.Errorf("invalid command")
	ErrUnknownCommand = fmt.Errorf("unknown command type")
	ErrPublishFailed  = fmt.Errorf("publish failed")

	// Projection side, logged and skipped
	ErrDecode = fmt.Errorf("malformed event")

	// Query side signals
	ErrNotFound = fmt.Errorf("order not found")
	ErrEmpty    = fmt.Errorf("orders data is unavailable")
)
