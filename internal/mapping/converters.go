package mapping

// Converter transforms a raw argument value into its persisted
// representation before it enters a query condition.
type Converter func(value any) (any, error)

// Converters is a per-entity registry of field converters. A field with
// no converter uses its value unchanged.
type Converters struct {
	byField map[string]Converter
}

// NewConverters creates an empty converter registry.
func NewConverters() *Converters {
	return &Converters{byField: make(map[string]Converter)}
}

// Register binds a converter to a declared field name, replacing any
// previous converter for that field.
func (c *Converters) Register(field string, converter Converter) *Converters {
	c.byField[field] = converter
	return c
}

// ConverterFor returns the converter registered for the field, if any.
func (c *Converters) ConverterFor(field string) (Converter, bool) {
	converter, ok := c.byField[field]
	return converter, ok
}
