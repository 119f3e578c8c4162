package domain

// SelectQuery represents a read over one collection. Conditions compose
// with the combinator; sorts apply in declaration order.
type SelectQuery struct {
	Collection string
	Conditions []Condition
	Combinator Combinator
	Sorts      []Sort
	Limit      int
	Skip       int
}

// NewSelectQuery creates a query over the given collection with the
// default AND combinator.
func NewSelectQuery(collection string) SelectQuery {
	return SelectQuery{
		Collection: collection,
		Combinator: CombinatorAnd,
	}
}

// WithCondition returns a new query with an appended condition.
func (q SelectQuery) WithCondition(condition Condition) SelectQuery {
	newConditions := copyConditions(q.Conditions)
	newConditions = append(newConditions, condition)

	return SelectQuery{
		Collection: q.Collection,
		Conditions: newConditions,
		Combinator: q.Combinator,
		Sorts:      copySorts(q.Sorts),
		Limit:      q.Limit,
		Skip:       q.Skip,
	}
}

// WithCombinator returns a new query combining conditions with the given
// combinator.
func (q SelectQuery) WithCombinator(combinator Combinator) SelectQuery {
	return SelectQuery{
		Collection: q.Collection,
		Conditions: copyConditions(q.Conditions),
		Combinator: combinator,
		Sorts:      copySorts(q.Sorts),
		Limit:      q.Limit,
		Skip:       q.Skip,
	}
}

// WithSort returns a new query with an appended sort.
func (q SelectQuery) WithSort(sort Sort) SelectQuery {
	newSorts := copySorts(q.Sorts)
	newSorts = append(newSorts, sort)

	return SelectQuery{
		Collection: q.Collection,
		Conditions: copyConditions(q.Conditions),
		Combinator: q.Combinator,
		Sorts:      newSorts,
		Limit:      q.Limit,
		Skip:       q.Skip,
	}
}

// WithLimit returns a new query limited to the given number of results.
func (q SelectQuery) WithLimit(limit int) SelectQuery {
	return SelectQuery{
		Collection: q.Collection,
		Conditions: copyConditions(q.Conditions),
		Combinator: q.Combinator,
		Sorts:      copySorts(q.Sorts),
		Limit:      limit,
		Skip:       q.Skip,
	}
}

// WithSkip returns a new query skipping the given number of results.
func (q SelectQuery) WithSkip(skip int) SelectQuery {
	return SelectQuery{
		Collection: q.Collection,
		Conditions: copyConditions(q.Conditions),
		Combinator: q.Combinator,
		Sorts:      copySorts(q.Sorts),
		Limit:      q.Limit,
		Skip:       skip,
	}
}

// DeleteQuery represents a delete over one collection.
type DeleteQuery struct {
	Collection string
	Conditions []Condition
	Combinator Combinator
}

// NewDeleteQuery creates a delete query over the given collection with
// the default AND combinator.
func NewDeleteQuery(collection string) DeleteQuery {
	return DeleteQuery{
		Collection: collection,
		Combinator: CombinatorAnd,
	}
}

// WithCondition returns a new delete query with an appended condition.
func (q DeleteQuery) WithCondition(condition Condition) DeleteQuery {
	newConditions := copyConditions(q.Conditions)
	newConditions = append(newConditions, condition)

	return DeleteQuery{
		Collection: q.Collection,
		Conditions: newConditions,
		Combinator: q.Combinator,
	}
}

// WithCombinator returns a new delete query with the given combinator.
func (q DeleteQuery) WithCombinator(combinator Combinator) DeleteQuery {
	return DeleteQuery{
		Collection: q.Collection,
		Conditions: copyConditions(q.Conditions),
		Combinator: combinator,
	}
}

func copyConditions(conditions []Condition) []Condition {
	if conditions == nil {
		return nil
	}
	newConditions := make([]Condition, len(conditions))
	copy(newConditions, conditions)
	return newConditions
}

func copySorts(sorts []Sort) []Sort {
	if sorts == nil {
		return nil
	}
	newSorts := make([]Sort, len(sorts))
	copy(newSorts, sorts)
	return newSorts
}
