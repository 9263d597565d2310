package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNoRowsAffected is returned when a save reported zero rows affected.
// Callers surface it as 204 No Content, which is distinct from failure but
// easy to mistake for success; the ambiguity is inherited from the original
// front-desk workflow and kept on purpose.
var ErrNoRowsAffected = errors.New("no rows affected")

// ValidationError reports a malformed or missing request field. It is
// returned before any persistence attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
