// Package schema validates tool arguments against JSON Schema documents.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validator validates decoded JSON values against one compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schemaData. Malformed schemas fail here, not at call time.
func NewValidator(schemaData []byte) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// MustValidator is NewValidator for schemas embedded in source.
func MustValidator(schemaData string) *Validator {
	v, err := NewValidator([]byte(schemaData))
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks data, returning every violation joined into one error.
func (v *Validator) Validate(data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(violations, "; "))
	}
	return nil
}
