package domain

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// Sort captures an ordering preference over a persisted field.
type Sort struct {
	Field     string
	Direction SortDirection
}
