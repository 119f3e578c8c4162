package query

import (
	"errors"
	"fmt"

	"github.com/docfind/docfind/internal/domain"
	"github.com/docfind/docfind/internal/mapping"
)

// Deriver runs the full translation loop: it parses a finder method
// name, hands each token with its positional argument to the token
// processor and composes the resulting conditions into a query.
type Deriver struct {
	processor TokenProcessor
}

// NewDeriver creates a deriver backed by the default token processor.
func NewDeriver() *Deriver {
	return &Deriver{processor: NewTokenProcessor()}
}

// NewDeriverWith creates a deriver backed by the given token processor.
func NewDeriverWith(processor TokenProcessor) *Deriver {
	return &Deriver{processor: processor}
}

// DeriveSelect translates a FindBy/CountBy/ExistsBy method name and its
// arguments into a select query over the mapping's collection.
func (d *Deriver) DeriveSelect(methodName string, args []any,
	m *mapping.EntityMapping, converters *mapping.Converters) (domain.SelectQuery, error) {

	parsed, err := ParseMethod(methodName)
	if err != nil {
		return domain.SelectQuery{}, err
	}
	if parsed.Kind == KindDelete {
		return domain.SelectQuery{}, fmt.Errorf("method %q is a delete method, not a read method", methodName)
	}

	conditions, err := d.processTokens(parsed, methodName, args, m, converters)
	if err != nil {
		return domain.SelectQuery{}, err
	}

	q := domain.NewSelectQuery(m.Collection()).WithCombinator(parsed.Combinator)
	for _, condition := range conditions {
		q = q.WithCondition(condition)
	}
	for _, sort := range parsed.Sorts {
		resolved, err := resolveSortField(sort, methodName, m)
		if err != nil {
			return domain.SelectQuery{}, err
		}
		q = q.WithSort(resolved)
	}
	return q, nil
}

// DeriveDelete translates a DeleteBy method name and its arguments into
// a delete query over the mapping's collection.
func (d *Deriver) DeriveDelete(methodName string, args []any,
	m *mapping.EntityMapping, converters *mapping.Converters) (domain.DeleteQuery, error) {

	parsed, err := ParseMethod(methodName)
	if err != nil {
		return domain.DeleteQuery{}, err
	}
	if parsed.Kind != KindDelete {
		return domain.DeleteQuery{}, fmt.Errorf("method %q is not a delete method", methodName)
	}

	conditions, err := d.processTokens(parsed, methodName, args, m, converters)
	if err != nil {
		return domain.DeleteQuery{}, err
	}

	q := domain.NewDeleteQuery(m.Collection()).WithCombinator(parsed.Combinator)
	for _, condition := range conditions {
		q = q.WithCondition(condition)
	}
	return q, nil
}

func (d *Deriver) processTokens(parsed ParsedMethod, methodName string, args []any,
	m *mapping.EntityMapping, converters *mapping.Converters) ([]domain.Condition, error) {

	if len(args) != len(parsed.Tokens) {
		return nil, fmt.Errorf("method %q expects %d arguments, got %d", methodName, len(parsed.Tokens), len(args))
	}

	conditions := make([]domain.Condition, 0, len(parsed.Tokens))
	for i, token := range parsed.Tokens {
		condition, err := d.processor.Process(token, i, args, methodName, m, converters)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}
	return conditions, nil
}

func resolveSortField(sort SortToken, methodName string, m *mapping.EntityMapping) (domain.Sort, error) {
	declared := mapping.Decapitalize(sort.Field)
	persisted, err := m.ResolvedName(declared)
	if err != nil {
		var notFound *mapping.FieldNotFoundError
		if errors.As(err, &notFound) {
			notFound.Method = methodName
		}
		return domain.Sort{}, err
	}
	return domain.Sort{Field: persisted, Direction: sort.Direction}, nil
}
