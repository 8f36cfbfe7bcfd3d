package openapi

import (
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reflect builds an inline schema for obj. Fields are required only when
// tagged `jsonschema:"required"`.
func Reflect(obj any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := r.Reflect(obj)
	s.Version = ""
	s.ID = ""
	return s
}

func GenerateSchema(obj any) ([]byte, error) {
	return json.MarshalIndent(Reflect(obj), "", "  ")
}

func WriteSchemaToFile(path string, obj any) error {
	data, err := GenerateSchema(obj)
	if err != nil {
		return fmt.Errorf("error generating json schema: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write schema to path[%s]: %w", path, err)
	}

	return nil
}
