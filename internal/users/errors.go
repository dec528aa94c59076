package users

import (
	"errors"
	"fmt"
)

// Error types for user operations. The HTTP layer maps each type to a status code.
const (
	ErrorTypeValidationFailed = "validation_failed"
	ErrorTypeDuplicatedEmail  = "duplicated_email"
	ErrorTypeNotFound         = "not_found"
	ErrorTypeUnderage         = "underage"
	ErrorTypeFutureBirthDate  = "future_birth_date"
	ErrorTypeInvalidDateRange = "invalid_date_range"
)

// Error represents a domain failure from a user operation
type Error struct {
	Type    string
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("user error [%s]: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("user error [%s]: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidationFailedError creates an error for malformed or missing request fields,
// keyed by field name
func NewValidationFailedError(fields map[string]string) *Error {
	return &Error{
		Type:    ErrorTypeValidationFailed,
		Message: "Validation Failed",
		Fields:  fields,
	}
}

// NewDuplicatedEmailError creates an error for when a stored user already has the email
func NewDuplicatedEmailError() *Error {
	return &Error{
		Type:    ErrorTypeDuplicatedEmail,
		Message: "Email already exists",
	}
}

// NewUserNotFoundError creates an error for when no user exists with the id
func NewUserNotFoundError(id int64) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("User with id %d not found", id),
	}
}

// NewUnderageError creates an error for a birth date under the minimum age
func NewUnderageError(minAge int) *Error {
	return &Error{
		Type:    ErrorTypeUnderage,
		Message: fmt.Sprintf("User must be at least %d years old", minAge),
	}
}

// NewFutureBirthDateError creates an error for a birth date after the current date
func NewFutureBirthDateError() *Error {
	return &Error{
		Type:    ErrorTypeFutureBirthDate,
		Message: "Birth date cannot be in the future",
	}
}

// NewInvalidDateRangeError creates an error for a search range with start after end
func NewInvalidDateRangeError() *Error {
	return &Error{
		Type:    ErrorTypeInvalidDateRange,
		Message: "Start date cannot be after end date",
	}
}

// AsError extracts a domain *Error from err, unwrapping as needed.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
