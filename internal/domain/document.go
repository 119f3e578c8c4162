package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document represents a single schemaless document inside a collection.
type Document struct {
	ID         uuid.UUID      `json:"id"`
	Collection string         `json:"collection"`
	Properties map[string]any `json:"properties"`
	Version    int64          `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewDocument creates a new document with immutable pattern
func NewDocument(collection string, properties map[string]any) Document {
	now := time.Now()
	return Document{
		ID:         uuid.New(),
		Collection: collection,
		Properties: copyProperties(properties), // Deep copy to ensure immutability
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithProperty returns a new document with an added/updated property
func (d Document) WithProperty(key string, value any) Document {
	newProperties := copyProperties(d.Properties)
	newProperties[key] = value

	return Document{
		ID:         d.ID,
		Collection: d.Collection,
		Properties: newProperties,
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  time.Now(),
	}
}

// WithoutProperty returns a new document without the specified property
func (d Document) WithoutProperty(key string) Document {
	newProperties := copyProperties(d.Properties)
	delete(newProperties, key)

	return Document{
		ID:         d.ID,
		Collection: d.Collection,
		Properties: newProperties,
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  time.Now(),
	}
}

// Property returns the named property value and whether it is present.
func (d Document) Property(key string) (any, bool) {
	value, ok := d.Properties[key]
	return value, ok
}

// GetPropertiesAsJSONB returns the properties as JSONB for database storage
func (d Document) GetPropertiesAsJSONB() (json.RawMessage, error) {
	return json.Marshal(d.Properties)
}

// FromJSONBProperties creates a properties map from JSONB data
func FromJSONBProperties(propertiesJSON json.RawMessage) (map[string]any, error) {
	if len(propertiesJSON) == 0 {
		return map[string]any{}, nil
	}
	var properties map[string]any
	err := json.Unmarshal(propertiesJSON, &properties)
	return properties, err
}

// copyProperties creates a shallow copy of the properties map so callers
// cannot mutate a document through a retained reference.
func copyProperties(properties map[string]any) map[string]any {
	newProperties := make(map[string]any, len(properties))
	for key, value := range properties {
		newProperties[key] = value
	}
	return newProperties
}
