package llm

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// outputSchema is a JSON schema inferred from a Go result type, resolved once
// so payloads can be validated against it.
type outputSchema struct {
	name     string
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

func mustOutputSchema[T any](name string) *outputSchema {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("inferring %s schema: %v", name, err))
	}
	// Generation backends must never answer with null at the root.
	if len(s.Types) > 0 {
		s.Type = nonNullType(s.Types)
		s.Types = nil
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("resolving %s schema: %v", name, err))
	}
	return &outputSchema{name: name, schema: s, resolved: resolved}
}

// decodeInto validates text against the schema and decodes it into out.
func (o *outputSchema) decodeInto(text string, out any) error {
	var instance any
	if err := json.Unmarshal([]byte(text), &instance); err != nil {
		return fmt.Errorf("malformed %s payload: %w", o.name, err)
	}
	if err := o.resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid %s payload: %w", o.name, err)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decoding %s payload: %w", o.name, err)
	}
	return nil
}

func nonNullType(types []string) string {
	for _, t := range types {
		if t != "null" {
			return t
		}
	}
	return ""
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	return nonNullType(s.Types)
}

// toGenaiSchema converts a JSON schema into the OpenAPI subset Gemini accepts.
func toGenaiSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{Description: s.Description}
	if slices.Contains(s.Types, "null") {
		out.Nullable = genai.Ptr(true)
	}

	switch schemaType(s) {
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
		out.Items = toGenaiSchema(s.Items)
		if s.MinItems != nil {
			out.MinItems = genai.Ptr(int64(*s.MinItems))
		}
		if s.MaxItems != nil {
			out.MaxItems = genai.Ptr(int64(*s.MaxItems))
		}
	case "object":
		out.Type = genai.TypeObject
		out.Required = s.Required
		out.PropertyOrdering = s.PropertyOrder
		if len(s.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(s.Properties))
			for name, prop := range s.Properties {
				out.Properties[name] = toGenaiSchema(prop)
			}
		}
	}
	return out
}
