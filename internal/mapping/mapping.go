package mapping

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldType represents the declared type of a mapped field
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
)

// FieldDefinition describes one declared field of an entity and the name
// it persists under.
type FieldDefinition struct {
	Name      string    `json:"name" mapstructure:"name"`
	Persisted string    `json:"persisted,omitempty" mapstructure:"persisted"`
	Type      FieldType `json:"type" mapstructure:"type"`
	Required  bool      `json:"required,omitempty" mapstructure:"required"`
}

// EntityMapping is the pre-built field-descriptor table for one entity
// type. It is constructed once and read from any number of goroutines.
type EntityMapping struct {
	collection string
	fields     []FieldDefinition
	byName     map[string]FieldDefinition
}

// NewEntityMapping builds a mapping for a collection from its declared
// fields. Field names must be unique; an empty persisted name defaults
// to the declared name.
func NewEntityMapping(collection string, fields []FieldDefinition) (*EntityMapping, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("entity mapping requires a collection name")
	}

	byName := make(map[string]FieldDefinition, len(fields))
	normalized := make([]FieldDefinition, 0, len(fields))
	for _, field := range fields {
		if strings.TrimSpace(field.Name) == "" {
			return nil, fmt.Errorf("entity mapping %q has a field with an empty name", collection)
		}
		if _, exists := byName[field.Name]; exists {
			return nil, fmt.Errorf("entity mapping %q declares field %q twice", collection, field.Name)
		}
		if field.Persisted == "" {
			field.Persisted = field.Name
		}
		if field.Type == "" {
			field.Type = FieldTypeString
		}
		byName[field.Name] = field
		normalized = append(normalized, field)
	}

	return &EntityMapping{
		collection: collection,
		fields:     normalized,
		byName:     byName,
	}, nil
}

// Collection returns the collection the mapping binds to.
func (m *EntityMapping) Collection() string {
	return m.collection
}

// FieldExists reports whether the declared field is part of the mapping.
func (m *EntityMapping) FieldExists(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// ResolvedName returns the persisted name of the declared field, or a
// FieldNotFoundError when the field is not mapped.
func (m *EntityMapping) ResolvedName(name string) (string, error) {
	field, ok := m.byName[name]
	if !ok {
		return "", &FieldNotFoundError{Entity: m.collection, Field: name}
	}
	return field.Persisted, nil
}

// FieldType returns the declared type of the field, or a
// FieldNotFoundError when the field is not mapped.
func (m *EntityMapping) FieldType(name string) (FieldType, error) {
	field, ok := m.byName[name]
	if !ok {
		return "", &FieldNotFoundError{Entity: m.collection, Field: name}
	}
	return field.Type, nil
}

// Fields returns a copy of the field definitions in declaration
// order. Mutating the copy does not affect the mapping.
func (m *EntityMapping) Fields() []FieldDefinition {
	if len(m.fields) == 0 {
		return nil
	}
	clone := make([]FieldDefinition, len(m.fields))
	copy(clone, m.fields)
	return clone
}

// Decapitalize lowers the leading rune of a finder-token field segment
// so it matches lowerCamel declared names ("Name" -> "name").
func Decapitalize(segment string) string {
	if segment == "" {
		return segment
	}
	r, size := utf8.DecodeRuneInString(segment)
	if !unicode.IsUpper(r) {
		return segment
	}
	return string(unicode.ToLower(r)) + segment[size:]
}
