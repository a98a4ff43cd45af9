package monitoring

import "fmt"

// ValidationError reports missing or out-of-range input. Nothing is
// mutated before it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// CapacityExceededError rejects a volume above the tank's capacity and
// carries both numbers for the error payload.
type CapacityExceededError struct {
	Volume   float64
	Capacity float64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("volume %.2f exceeds tank capacity %.2f", e.Volume, e.Capacity)
}

// NotFoundError reports a missing tank, event or snapshot.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AccessDeniedError reports a scope mismatch: the caller's trading-point
// or network set excludes the target tank.
type AccessDeniedError struct {
	Resource string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access to %s denied", e.Resource)
}

// StoreError wraps an underlying persistence failure into the normalized
// {message, code} shape. The subsystem never retries; that is left to the
// caller.
type StoreError struct {
	Message string
	Code    string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{
		Message: fmt.Sprintf("%s: %v", op, err),
		Code:    "store_error",
		Err:     err,
	}
}
