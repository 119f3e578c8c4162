package mapping

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadMapping reads an entity mapping descriptor from a YAML file.
//
// Expected shape:
//
//	collection: people
//	fields:
//	  - name: name
//	    type: string
//	  - name: age
//	    persisted: age_years
//	    type: integer
func LoadMapping(path string) (*EntityMapping, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read mapping descriptor %s: %w", path, err)
	}

	collection := v.GetString("collection")

	var fields []FieldDefinition
	if err := v.UnmarshalKey("fields", &fields); err != nil {
		return nil, fmt.Errorf("failed to decode mapping fields in %s: %w", path, err)
	}

	m, err := NewEntityMapping(collection, fields)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping descriptor %s: %w", path, err)
	}
	return m, nil
}
