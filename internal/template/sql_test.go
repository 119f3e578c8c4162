package template

import (
	"reflect"
	"strings"
	"testing"

	"github.com/docfind/docfind/internal/domain"
)

func TestBuildSelectSQL_ConditionsAndSorts(t *testing.T) {
	q := domain.NewSelectQuery("people").
		WithCondition(domain.NewCondition("name", domain.OperatorEquals, "Ada")).
		WithCondition(domain.NewCondition("age_years", domain.OperatorGreaterThan, 30)).
		WithSort(domain.Sort{Field: "age_years", Direction: domain.SortDirectionDesc})

	sql, args, err := buildSelectSQL(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(sql, "SELECT "+documentColumns+" FROM documents WHERE collection = $1") {
		t.Fatalf("unexpected SQL prefix: %s", sql)
	}
	if !strings.Contains(sql, "properties ->> $2::text = $3") {
		t.Fatalf("expected text equality clause, got: %s", sql)
	}
	if !strings.Contains(sql, "(properties ->> $4::text)::numeric > $5") {
		t.Fatalf("expected numeric cast on comparison clause, got: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY properties ->> $6::text DESC") {
		t.Fatalf("expected property sort clause, got: %s", sql)
	}

	expectedArgs := []any{"people", "name", "Ada", "age_years", 30, "age_years"}
	if !reflect.DeepEqual(args, expectedArgs) {
		t.Fatalf("expected args %v, got %v", expectedArgs, args)
	}
}

func TestBuildSelectSQL_OrCombinator(t *testing.T) {
	q := domain.NewSelectQuery("people").
		WithCombinator(domain.CombinatorOr).
		WithCondition(domain.NewCondition("city", domain.OperatorEquals, "Paris")).
		WithCondition(domain.NewCondition("city", domain.OperatorEquals, "London"))

	sql, _, err := buildSelectSQL(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, " OR ") {
		t.Fatalf("expected OR separator, got: %s", sql)
	}
	// The collection filter must stay conjunctive outside the OR group.
	if !strings.Contains(sql, "collection = $1 AND (") {
		t.Fatalf("expected OR group scoped by parentheses, got: %s", sql)
	}
}

func TestBuildSelectSQL_NoConditions(t *testing.T) {
	sql, args, err := buildSelectSQL(domain.NewSelectQuery("people"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "WHERE collection = $1 ORDER BY created_at DESC") {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if len(args) != 1 || args[0] != "people" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildSelectSQL_LimitAndSkip(t *testing.T) {
	q := domain.NewSelectQuery("people").WithLimit(10).WithSkip(20)

	sql, args, err := buildSelectSQL(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "LIMIT $2") || !strings.Contains(sql, "OFFSET $3") {
		t.Fatalf("expected limit and offset placeholders, got: %s", sql)
	}
	if args[1] != 10 || args[2] != 20 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildConditionSQL_Operators(t *testing.T) {
	cases := []struct {
		name      string
		condition domain.Condition
		contains  string
	}{
		{
			name:      "like",
			condition: domain.NewCondition("name", domain.OperatorLike, "Ada%"),
			contains:  "LIKE $2",
		},
		{
			name:      "starts with",
			condition: domain.NewCondition("name", domain.OperatorStartsWith, "Ada"),
			contains:  "LIKE $2 || '%'",
		},
		{
			name:      "contains",
			condition: domain.NewCondition("name", domain.OperatorContains, "da"),
			contains:  "LIKE '%' || $2 || '%'",
		},
		{
			name:      "not like",
			condition: domain.NewCondition("name", domain.OperatorNotLike, "Ada%"),
			contains:  "NOT (properties ->> $1::text LIKE $2)",
		},
		{
			name:      "in",
			condition: domain.NewCondition("city", domain.OperatorIn, []string{"Paris", "London"}),
			contains:  "= ANY($2::text[])",
		},
		{
			name:      "not in",
			condition: domain.NewCondition("city", domain.OperatorNotIn, []string{"Paris"}),
			contains:  "NOT (properties ->> $1::text = ANY($2::text[]))",
		},
		{
			name:      "between",
			condition: domain.NewCondition("age_years", domain.OperatorBetween, domain.Range{Start: 18, End: 65}),
			contains:  "(properties ->> $1::text)::numeric BETWEEN $2 AND $3",
		},
		{
			name:      "not equals",
			condition: domain.NewCondition("name", domain.OperatorNotEquals, "Ada"),
			contains:  "properties ->> $1::text <> $2",
		},
	}

	for _, tc := range cases {
		builder := newSQLBuilder()
		sql, err := buildConditionSQL(builder, tc.condition)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !strings.Contains(sql, tc.contains) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.contains, sql)
		}
	}
}

func TestBuildConditionSQL_BetweenFromSlice(t *testing.T) {
	builder := newSQLBuilder()
	sql, err := buildConditionSQL(builder, domain.NewCondition("age_years", domain.OperatorBetween, []int{18, 65}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "BETWEEN $2 AND $3") {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if builder.args[1] != 18 || builder.args[2] != 65 {
		t.Fatalf("unexpected args %v", builder.args)
	}
}

func TestBuildConditionSQL_BetweenRejectsScalar(t *testing.T) {
	builder := newSQLBuilder()
	if _, err := buildConditionSQL(builder, domain.NewCondition("age_years", domain.OperatorBetween, 18)); err == nil {
		t.Fatalf("expected error for scalar BETWEEN argument")
	}
}

func TestBuildConditionSQL_InRejectsScalar(t *testing.T) {
	builder := newSQLBuilder()
	if _, err := buildConditionSQL(builder, domain.NewCondition("city", domain.OperatorIn, "Paris")); err == nil {
		t.Fatalf("expected error for scalar IN argument")
	}
}

func TestBuildConditionSQL_InNormalizesElements(t *testing.T) {
	builder := newSQLBuilder()
	if _, err := buildConditionSQL(builder, domain.NewCondition("age_years", domain.OperatorIn, []int{30, 40})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elements, ok := builder.args[1].([]string)
	if !ok {
		t.Fatalf("expected []string argument, got %T", builder.args[1])
	}
	if !reflect.DeepEqual(elements, []string{"30", "40"}) {
		t.Fatalf("unexpected elements %v", elements)
	}
}

func TestBuildDeleteSQL(t *testing.T) {
	q := domain.NewDeleteQuery("people").
		WithCondition(domain.NewCondition("city", domain.OperatorEquals, "Paris"))

	sql, args, err := buildDeleteSQL(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(sql, "DELETE FROM documents WHERE collection = $1") {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildCountSQL(t *testing.T) {
	q := domain.NewSelectQuery("people").
		WithCondition(domain.NewCondition("city", domain.OperatorEquals, "Paris")).
		WithSort(domain.Sort{Field: "name", Direction: domain.SortDirectionAsc}).
		WithLimit(5)

	sql, args, err := buildCountSQL(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(sql, "SELECT COUNT(*) FROM documents WHERE collection = $1") {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if strings.Contains(sql, "ORDER BY") || strings.Contains(sql, "LIMIT") {
		t.Fatalf("count SQL must not carry sorts or limits: %s", sql)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args %v", args)
	}
}
