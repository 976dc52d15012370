package concepts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const annotatorSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["annotatedClass", "annotations"],
    "properties": {
      "annotatedClass": {
        "type": "object",
        "properties": {
          "@id": {"type": "string"},
          "links": {
            "type": "object",
            "properties": {"self": {"type": "string"}}
          }
        }
      },
      "annotations": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["from", "to", "text"],
          "properties": {
            "from": {"type": "integer", "minimum": 1},
            "to": {"type": "integer", "minimum": 1},
            "text": {"type": "string"}
          }
        }
      }
    }
  }
}`

const classSchema = `{
  "type": "object",
  "required": ["prefLabel"],
  "properties": {
    "prefLabel": {"type": "string"},
    "synonym": {"type": "array", "items": {"type": "string"}}
  }
}`

type schemas struct {
	annotator *jsonschema.Schema
	class     *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	for name, raw := range map[string]string{
		"annotator.json": annotatorSchema,
		"class.json":     classSchema,
	} {
		if err := compiler.AddResource(name, bytes.NewReader([]byte(raw))); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	annotator, err := compiler.Compile("annotator.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile annotator schema: %w", err)
	}
	class, err := compiler.Compile("class.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile class schema: %w", err)
	}
	return &schemas{annotator: annotator, class: class}, nil
}

// decodeValidated checks body against schema, then decodes it into out.
func decodeValidated(schema *jsonschema.Schema, body []byte, out any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
