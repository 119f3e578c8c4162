package query

import (
	"errors"
	"fmt"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/mapping"
)

// TokenProcessor turns one finder-method token into a query condition.
//
// Contract: token is non-empty, index addresses a valid slot of args,
// and mapping/converters are non-nil. The surrounding method parser
// guarantees the contract before calling; violations panic rather than
// returning an error.
type TokenProcessor interface {
	Process(token string, index int, args []any, methodName string,
		m *mapping.EntityMapping, converters *mapping.Converters) (domain.Condition, error)
}

// NewTokenProcessor returns the default token processor.
func NewTokenProcessor() TokenProcessor {
	return tokenProcessor{}
}

type tokenProcessor struct{}

// Process resolves the token's field segment against the entity mapping,
// applies the field's converter to args[index] when one is registered,
// and builds the condition. The only recoverable failure is an unmapped
// field, reported with the originating method name for diagnostics.
func (tokenProcessor) Process(token string, index int, args []any, methodName string,
	m *mapping.EntityMapping, converters *mapping.Converters) (domain.Condition, error) {

	fieldSegment, operator := splitToken(token)
	declared := mapping.Decapitalize(fieldSegment)

	persisted, err := m.ResolvedName(declared)
	if err != nil {
		var notFound *mapping.FieldNotFoundError
		if errors.As(err, &notFound) {
			notFound.Method = methodName
			return domain.Condition{}, notFound
		}
		return domain.Condition{}, err
	}

	// Range-shaped operators receive an argument already shaped as a
	// two-element range; the processor never splits a scalar itself.
	value := args[index]

	if converter, ok := converters.ConverterFor(declared); ok {
		converted, err := converter(value)
		if err != nil {
			return domain.Condition{}, fmt.Errorf("failed to convert value for field %q in method %q: %w", declared, methodName, err)
		}
		value = converted
	}

	return domain.NewCondition(persisted, operator, value), nil
}
