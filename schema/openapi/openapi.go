package openapi

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"
)

// Validator checks documents against the schema of a Go type.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(obj any) (*Validator, error) {
	data, err := GenerateSchema(obj)
	if err != nil {
		return nil, fmt.Errorf("error generating json schema: %w", err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("error compiling json schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator panics when the schema of obj cannot be compiled.
func MustValidator(obj any) *Validator {
	v, err := NewValidator(obj)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks an already decoded document.
func (v *Validator) Validate(doc any) error {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

func (v *Validator) ValidateBytes(data []byte) error {
	return v.validate(gojsonschema.NewBytesLoader(data))
}

func (v *Validator) validate(loader gojsonschema.JSONLoader) error {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		return fmt.Errorf("document is invalid: %s", strings.Join(lo.Map(result.Errors(), func(e gojsonschema.ResultError, _ int) string {
			return e.String()
		}), "; "))
	}
	return nil
}
