package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/docfind/docfind/internal/domain"
)

// MethodKind classifies what a finder method does with its result set.
type MethodKind int

const (
	KindSelect MethodKind = iota
	KindDelete
	KindCount
	KindExists
)

func (k MethodKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindDelete:
		return "delete"
	case KindCount:
		return "count"
	case KindExists:
		return "exists"
	}
	return "unknown"
}

// SortToken is an unresolved ordering segment parsed from an OrderBy
// clause: the field segment still in UpperCamel token form.
type SortToken struct {
	Field     string
	Direction domain.SortDirection
}

// ParsedMethod is the structured form of a finder method name.
type ParsedMethod struct {
	Kind       MethodKind
	Tokens     []string
	Combinator domain.Combinator
	Sorts      []SortToken
}

var methodPrefixes = []struct {
	prefix string
	kind   MethodKind
}{
	{"FindBy", KindSelect},
	{"DeleteBy", KindDelete},
	{"CountBy", KindCount},
	{"ExistsBy", KindExists},
}

// ParseMethod decomposes a finder method name such as
// "FindByNameAndAgeGreaterThanOrderByAgeDesc" into its kind, predicate
// tokens, combinator and sort clause. Predicates combine with And or Or;
// mixing the two in one method is rejected. The last occurrence of
// "OrderBy" starts the sort clause, so a field whose name begins with
// "orderBy" cannot appear in the predicate: a method like
// "FindByOrderByDate" is rejected as having no predicates.
func ParseMethod(methodName string) (ParsedMethod, error) {
	name := upperFirst(strings.TrimSpace(methodName))
	if name == "" {
		return ParsedMethod{}, errors.New("finder method name is empty")
	}

	var kind MethodKind
	var remainder string
	matched := false
	for _, candidate := range methodPrefixes {
		if strings.HasPrefix(name, candidate.prefix) {
			kind = candidate.kind
			remainder = name[len(candidate.prefix):]
			matched = true
			break
		}
	}
	if !matched {
		return ParsedMethod{}, fmt.Errorf("method %q is not a finder method (expected FindBy, DeleteBy, CountBy or ExistsBy)", methodName)
	}

	predicatePart := remainder
	orderPart := ""
	if idx := strings.LastIndex(remainder, "OrderBy"); idx >= 0 {
		predicatePart = remainder[:idx]
		orderPart = remainder[idx+len("OrderBy"):]
		if orderPart == "" {
			return ParsedMethod{}, fmt.Errorf("method %q has an empty OrderBy clause", methodName)
		}
	}
	if predicatePart == "" {
		return ParsedMethod{}, fmt.Errorf("method %q has no predicates", methodName)
	}

	tokens, combinator, err := splitPredicates(predicatePart)
	if err != nil {
		return ParsedMethod{}, fmt.Errorf("method %q: %w", methodName, err)
	}

	var sorts []SortToken
	if orderPart != "" {
		if kind == KindDelete {
			return ParsedMethod{}, fmt.Errorf("method %q: OrderBy is not valid on a delete method", methodName)
		}
		sorts = parseOrderClause(orderPart)
	}

	return ParsedMethod{
		Kind:       kind,
		Tokens:     tokens,
		Combinator: combinator,
		Sorts:      sorts,
	}, nil
}

// splitPredicates cuts the predicate section on And/Or separators. A
// keyword only separates when an uppercase rune follows it, so field
// segments like "Android" or "Organization" stay intact.
func splitPredicates(predicates string) ([]string, domain.Combinator, error) {
	var tokens []string
	sawAnd := false
	sawOr := false

	start := 0
	i := 1
	for i < len(predicates) {
		if keyword := separatorAt(predicates, i); keyword != "" {
			token := predicates[start:i]
			if token == "" {
				return nil, "", errors.New("empty predicate token")
			}
			tokens = append(tokens, token)
			if keyword == "And" {
				sawAnd = true
			} else {
				sawOr = true
			}
			start = i + len(keyword)
			i = start + 1
			continue
		}
		i++
	}
	last := predicates[start:]
	if last == "" {
		return nil, "", errors.New("empty predicate token")
	}
	tokens = append(tokens, last)

	if sawAnd && sawOr {
		return nil, "", errors.New("mixing And and Or predicates is not supported")
	}
	combinator := domain.CombinatorAnd
	if sawOr {
		combinator = domain.CombinatorOr
	}
	return tokens, combinator, nil
}

// separatorAt returns "And" or "Or" when one of them occurs at offset i
// and is followed by an uppercase rune, otherwise "".
func separatorAt(s string, i int) string {
	for _, keyword := range []string{"And", "Or"} {
		if !strings.HasPrefix(s[i:], keyword) {
			continue
		}
		rest := s[i+len(keyword):]
		if rest == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsUpper(r) {
			return keyword
		}
	}
	return ""
}

// parseOrderClause reads sort segments such as "AgeDescNameAsc". A
// trailing segment with no direction keyword defaults to ascending.
func parseOrderClause(clause string) []SortToken {
	var sorts []SortToken
	for clause != "" {
		cut := false
		for i := 1; i < len(clause); i++ {
			if directionAt(clause, i, "Desc") {
				sorts = append(sorts, SortToken{Field: clause[:i], Direction: domain.SortDirectionDesc})
				clause = clause[i+len("Desc"):]
				cut = true
				break
			}
			if directionAt(clause, i, "Asc") {
				sorts = append(sorts, SortToken{Field: clause[:i], Direction: domain.SortDirectionAsc})
				clause = clause[i+len("Asc"):]
				cut = true
				break
			}
		}
		if !cut {
			sorts = append(sorts, SortToken{Field: clause, Direction: domain.SortDirectionAsc})
			break
		}
	}
	return sorts
}

// directionAt reports whether a direction keyword occurs at offset i and
// ends the segment, meaning it is followed by nothing or an uppercase
// rune starting the next segment.
func directionAt(s string, i int, keyword string) bool {
	if !strings.HasPrefix(s[i:], keyword) {
		return false
	}
	rest := s[i+len(keyword):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
