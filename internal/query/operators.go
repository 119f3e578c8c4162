package query

import (
	"strings"

	"github.com/docfind/docfind/internal/domain"
)

// operatorSuffix pairs a finder-token keyword with the operator it
// resolves to.
type operatorSuffix struct {
	keyword  string
	operator domain.Operator
}

// operatorSuffixes is ordered by descending keyword length and matched
// anchored at the token end. The ordering is the precedence rule: the
// longest recognized suffix wins, so GreaterThanEqual is tried before
// GreaterThan and NotLike before Like. A token matching no keyword is a
// bare field name and defaults to Equals.
var operatorSuffixes = []operatorSuffix{
	{"GreaterThanEqual", domain.OperatorGreaterThanEqual},
	{"NotStartsWith", domain.OperatorNotStartsWith},
	{"LessThanEqual", domain.OperatorLessThanEqual},
	{"NotContains", domain.OperatorNotContains},
	{"GreaterThan", domain.OperatorGreaterThan},
	{"NotBetween", domain.OperatorNotBetween},
	{"StartsWith", domain.OperatorStartsWith},
	{"NotEquals", domain.OperatorNotEquals},
	{"LessThan", domain.OperatorLessThan},
	{"Contains", domain.OperatorContains},
	{"NotLike", domain.OperatorNotLike},
	{"Between", domain.OperatorBetween},
	{"Equals", domain.OperatorEquals},
	{"NotIn", domain.OperatorNotIn},
	{"Like", domain.OperatorLike},
	{"In", domain.OperatorIn},
}

// splitToken decomposes a finder token into its field segment and
// operator. The match must leave a non-empty field segment; a token that
// is nothing but an operator keyword is treated as a bare field name.
func splitToken(token string) (string, domain.Operator) {
	for _, suffix := range operatorSuffixes {
		if len(token) > len(suffix.keyword) && strings.HasSuffix(token, suffix.keyword) {
			return token[:len(token)-len(suffix.keyword)], suffix.operator
		}
	}
	return token, domain.OperatorEquals
}
