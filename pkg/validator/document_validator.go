package validator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/docfind/docfind/internal/mapping"
)

// DocumentValidator handles validation of document properties against an
// entity mapping
type DocumentValidator struct{}

// NewDocumentValidator creates a new document validator
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// ValidateProperties validates document properties against the mapping's
// field definitions. Properties are keyed by persisted field name.
func (dv *DocumentValidator) ValidateProperties(properties map[string]any, m *mapping.EntityMapping) ValidationResult {
	result := ValidationResult{
		IsValid: true,
		Errors:  []ValidationError{},
	}

	known := make(map[string]mapping.FieldDefinition)
	for _, field := range m.Fields() {
		known[field.Persisted] = field

		value, exists := properties[field.Persisted]

		// Required field missing
		if field.Required && (!exists || value == nil) {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   field.Persisted,
				Message: fmt.Sprintf("required field '%s' is missing", field.Persisted),
			})
			continue
		}

		// Skip validation for missing optional fields
		if !exists || value == nil {
			continue
		}

		// Type validation
		if err := dv.validateFieldType(field.Persisted, value, field.Type); err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   field.Persisted,
				Message: err.Error(),
				Value:   value,
			})
		}
	}

	// Check for extra properties not defined in the mapping
	for propertyName := range properties {
		if _, exists := known[propertyName]; !exists {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   propertyName,
				Message: fmt.Sprintf("property '%s' is not defined in the mapping", propertyName),
				Value:   properties[propertyName],
			})
		}
	}

	return result
}

// validateFieldType validates the type of a field value
func (dv *DocumentValidator) validateFieldType(fieldName string, value any, expectedType mapping.FieldType) error {
	switch expectedType {
	case mapping.FieldTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' must be a string, got %T", fieldName, value)
		}
	case mapping.FieldTypeInteger:
		if !isInteger(value) {
			return fmt.Errorf("field '%s' must be an integer, got %T", fieldName, value)
		}
	case mapping.FieldTypeFloat:
		if !isFloat(value) {
			return fmt.Errorf("field '%s' must be a float, got %T", fieldName, value)
		}
	case mapping.FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s' must be a boolean, got %T", fieldName, value)
		}
	case mapping.FieldTypeTimestamp:
		switch v := value.(type) {
		case string:
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return fmt.Errorf("field '%s' must be a valid timestamp (RFC3339): %v", fieldName, err)
			}
		case time.Time:
			// already parsed; accept value
		default:
			return fmt.Errorf("field '%s' must be a timestamp string, got %T", fieldName, value)
		}
	case mapping.FieldTypeJSON:
		if _, err := json.Marshal(value); err != nil {
			return fmt.Errorf("field '%s' contains invalid JSON: %v", fieldName, err)
		}
	default:
		return fmt.Errorf("field '%s' has unknown type '%s'", fieldName, expectedType)
	}
	return nil
}

// isInteger accepts native integer types plus whole-numbered floats,
// since JSON decoding yields float64 for all numbers.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return v == float32(int64(v))
	}
	return false
}

func isFloat(value any) bool {
	switch value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
