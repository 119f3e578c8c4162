package template

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/docfind/docfind/internal/domain"
)

const documentColumns = "id, collection, properties, version, created_at, updated_at"

type sqlBuilder struct {
	args []any
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{args: make([]any, 0)}
}

func (b *sqlBuilder) addArg(value any) int {
	b.args = append(b.args, value)
	return len(b.args)
}

func (b *sqlBuilder) placeholder(idx int) string {
	return fmt.Sprintf("$%d", idx)
}

// buildSelectSQL renders a select query into SQL plus positional args.
func buildSelectSQL(q domain.SelectQuery) (string, []any, error) {
	builder := newSQLBuilder()

	where, err := buildWhereClause(builder, q.Collection, q.Conditions, q.Combinator)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + documentColumns + " FROM documents WHERE " + where)

	if len(q.Sorts) > 0 {
		orderings := make([]string, 0, len(q.Sorts))
		for _, sort := range q.Sorts {
			direction := "ASC"
			if sort.Direction == domain.SortDirectionDesc {
				direction = "DESC"
			}
			keyIdx := builder.addArg(sort.Field)
			orderings = append(orderings, fmt.Sprintf("properties ->> %s::text %s", builder.placeholder(keyIdx), direction))
		}
		sb.WriteString(" ORDER BY " + strings.Join(orderings, ", "))
	} else {
		sb.WriteString(" ORDER BY created_at DESC")
	}

	if q.Limit > 0 {
		limitIdx := builder.addArg(q.Limit)
		sb.WriteString(" LIMIT " + builder.placeholder(limitIdx))
	}
	if q.Skip > 0 {
		skipIdx := builder.addArg(q.Skip)
		sb.WriteString(" OFFSET " + builder.placeholder(skipIdx))
	}

	return sb.String(), builder.args, nil
}

// buildCountSQL renders a count over the query's conditions. Sorts,
// limit and skip do not apply to counts.
func buildCountSQL(q domain.SelectQuery) (string, []any, error) {
	builder := newSQLBuilder()

	where, err := buildWhereClause(builder, q.Collection, q.Conditions, q.Combinator)
	if err != nil {
		return "", nil, err
	}

	return "SELECT COUNT(*) FROM documents WHERE " + where, builder.args, nil
}

// buildDeleteSQL renders a delete query into SQL plus positional args.
func buildDeleteSQL(q domain.DeleteQuery) (string, []any, error) {
	builder := newSQLBuilder()

	where, err := buildWhereClause(builder, q.Collection, q.Conditions, q.Combinator)
	if err != nil {
		return "", nil, err
	}

	return "DELETE FROM documents WHERE " + where, builder.args, nil
}

func buildWhereClause(builder *sqlBuilder, collection string, conditions []domain.Condition, combinator domain.Combinator) (string, error) {
	collectionIdx := builder.addArg(collection)
	clause := "collection = " + builder.placeholder(collectionIdx)

	if len(conditions) == 0 {
		return clause, nil
	}

	separator := " AND "
	if combinator == domain.CombinatorOr {
		separator = " OR "
	}

	parts := make([]string, 0, len(conditions))
	for _, condition := range conditions {
		part, err := buildConditionSQL(builder, condition)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	return clause + " AND (" + strings.Join(parts, separator) + ")", nil
}

// buildConditionSQL renders one condition against the JSONB properties
// column. Comparison operands are cast based on the Go type of the
// condition value so numeric and timestamp predicates compare by value,
// not lexicographically.
func buildConditionSQL(builder *sqlBuilder, condition domain.Condition) (string, error) {
	keyIdx := builder.addArg(condition.Field)
	key := fmt.Sprintf("properties ->> %s::text", builder.placeholder(keyIdx))

	switch condition.Operator {
	case domain.OperatorEquals, domain.OperatorNotEquals,
		domain.OperatorGreaterThan, domain.OperatorGreaterThanEqual,
		domain.OperatorLessThan, domain.OperatorLessThanEqual:
		valueIdx := builder.addArg(condition.Value)
		return fmt.Sprintf("%s %s %s", castKey(key, castFor(condition.Value)),
			comparisonSQL(condition.Operator), builder.placeholder(valueIdx)), nil

	case domain.OperatorLike, domain.OperatorNotLike:
		valueIdx := builder.addArg(condition.Value)
		expr := fmt.Sprintf("%s LIKE %s", key, builder.placeholder(valueIdx))
		if condition.Operator == domain.OperatorNotLike {
			expr = negate(expr)
		}
		return expr, nil

	case domain.OperatorStartsWith, domain.OperatorNotStartsWith:
		valueIdx := builder.addArg(condition.Value)
		expr := fmt.Sprintf("%s LIKE %s || '%%'", key, builder.placeholder(valueIdx))
		if condition.Operator == domain.OperatorNotStartsWith {
			expr = negate(expr)
		}
		return expr, nil

	case domain.OperatorContains, domain.OperatorNotContains:
		valueIdx := builder.addArg(condition.Value)
		expr := fmt.Sprintf("%s LIKE '%%' || %s || '%%'", key, builder.placeholder(valueIdx))
		if condition.Operator == domain.OperatorNotContains {
			expr = negate(expr)
		}
		return expr, nil

	case domain.OperatorIn, domain.OperatorNotIn:
		elements, err := toTextArray(condition.Value)
		if err != nil {
			return "", fmt.Errorf("IN condition on field %q: %w", condition.Field, err)
		}
		arrayIdx := builder.addArg(elements)
		expr := fmt.Sprintf("%s = ANY(%s::text[])", key, builder.placeholder(arrayIdx))
		if condition.Operator == domain.OperatorNotIn {
			expr = negate(expr)
		}
		return expr, nil

	case domain.OperatorBetween, domain.OperatorNotBetween:
		start, end, err := rangeBounds(condition.Value)
		if err != nil {
			return "", fmt.Errorf("BETWEEN condition on field %q: %w", condition.Field, err)
		}
		startIdx := builder.addArg(start)
		endIdx := builder.addArg(end)
		expr := fmt.Sprintf("%s BETWEEN %s AND %s", castKey(key, castFor(start)),
			builder.placeholder(startIdx), builder.placeholder(endIdx))
		if condition.Operator == domain.OperatorNotBetween {
			expr = negate(expr)
		}
		return expr, nil
	}

	return "", fmt.Errorf("unsupported operator %s on field %q", condition.Operator, condition.Field)
}

func comparisonSQL(operator domain.Operator) string {
	switch operator {
	case domain.OperatorEquals:
		return "="
	case domain.OperatorNotEquals:
		return "<>"
	case domain.OperatorGreaterThan:
		return ">"
	case domain.OperatorGreaterThanEqual:
		return ">="
	case domain.OperatorLessThan:
		return "<"
	case domain.OperatorLessThanEqual:
		return "<="
	}
	return "="
}

func negate(expr string) string {
	return "NOT (" + expr + ")"
}

// castKey wraps the JSONB text expression in a cast when one applies.
// Text comparisons use the bare expression.
func castKey(key, cast string) string {
	if cast == "" {
		return key
	}
	return "(" + key + ")" + cast
}

func castFor(value any) string {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return "::numeric"
	case bool:
		return "::boolean"
	case time.Time, *time.Time:
		return "::timestamptz"
	}
	return ""
}

// toTextArray normalizes an IN argument into the []string form that
// compares against the text rendering of JSONB properties.
func toTextArray(value any) ([]string, error) {
	if elements, ok := value.([]string); ok {
		clone := make([]string, len(elements))
		copy(clone, elements)
		return clone, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice argument, got %T", value)
	}

	elements := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elements[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return elements, nil
}

// rangeBounds extracts the two bounds a BETWEEN condition carries,
// accepting either a domain.Range or a two-element slice.
func rangeBounds(value any) (any, any, error) {
	if bounds, ok := value.(domain.Range); ok {
		return bounds.Start, bounds.End, nil
	}

	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == 2 {
		return rv.Index(0).Interface(), rv.Index(1).Interface(), nil
	}

	return nil, nil, fmt.Errorf("expected a Range or two-element slice, got %T", value)
}
