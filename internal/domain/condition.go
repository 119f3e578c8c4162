package domain

import "fmt"

// Operator identifies the comparison a condition applies to its field.
type Operator string

const (
	OperatorEquals           Operator = "EQUALS"
	OperatorNotEquals        Operator = "NOT_EQUALS"
	OperatorGreaterThan      Operator = "GREATER_THAN"
	OperatorGreaterThanEqual Operator = "GREATER_THAN_EQUAL"
	OperatorLessThan         Operator = "LESS_THAN"
	OperatorLessThanEqual    Operator = "LESS_THAN_EQUAL"
	OperatorLike             Operator = "LIKE"
	OperatorNotLike          Operator = "NOT_LIKE"
	OperatorStartsWith       Operator = "STARTS_WITH"
	OperatorNotStartsWith    Operator = "NOT_STARTS_WITH"
	OperatorContains         Operator = "CONTAINS"
	OperatorNotContains      Operator = "NOT_CONTAINS"
	OperatorIn               Operator = "IN"
	OperatorNotIn            Operator = "NOT_IN"
	OperatorBetween          Operator = "BETWEEN"
	OperatorNotBetween       Operator = "NOT_BETWEEN"
)

// Negated reports whether the operator is one of the NOT variants.
func (o Operator) Negated() bool {
	switch o {
	case OperatorNotEquals, OperatorNotLike, OperatorNotStartsWith,
		OperatorNotContains, OperatorNotIn, OperatorNotBetween:
		return true
	}
	return false
}

// RangeShaped reports whether the operator expects a two-element range value.
func (o Operator) RangeShaped() bool {
	return o == OperatorBetween || o == OperatorNotBetween
}

// Condition is a single predicate over a persisted field, ready for
// inclusion in a query. It is a plain value; ownership passes to the
// query that embeds it.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// NewCondition builds a condition for the given persisted field.
func NewCondition(field string, operator Operator, value any) Condition {
	return Condition{Field: field, Operator: operator, Value: value}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
}

// Range carries the pair of bounds a BETWEEN condition compares against.
// Bounds are inclusive on both ends.
type Range struct {
	Start any
	End   any
}

// Combinator describes how sibling conditions compose into one query.
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)
