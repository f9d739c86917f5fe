package services

// Typed service errors, mapped to HTTP status codes at the handler
// boundary.

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// SubscriptionRequiredError signals that a code-gated session needs a
// redeemed subscription code before the caller may join.
type SubscriptionRequiredError struct{ SessionID string }

func (e *SubscriptionRequiredError) Error() string {
	return "A subscription code is required to join this session"
}

type StorageError struct{ Message string }

func (e *StorageError) Error() string { return e.Message }
