package mapping

import (
	"errors"
	"fmt"
)

// FieldNotFoundError reports a declared field that does not exist in an
// entity mapping. Method is filled in by callers that know the finder
// method the field segment was parsed from.
type FieldNotFoundError struct {
	Entity string
	Field  string
	Method string
}

func (e *FieldNotFoundError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("field %q is not mapped for entity %q (method %q)", e.Field, e.Entity, e.Method)
	}
	return fmt.Sprintf("field %q is not mapped for entity %q", e.Field, e.Entity)
}

// IsFieldNotFound reports whether err is, or wraps, a FieldNotFoundError.
func IsFieldNotFound(err error) bool {
	var target *FieldNotFoundError
	return errors.As(err, &target)
}
