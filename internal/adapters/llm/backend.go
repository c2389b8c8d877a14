package llm

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Request is one structured generation call.
type Request struct {
	System     string
	User       string
	Schema     *jsonschema.Schema
	SchemaName string
}

// Backend runs a generation request and returns the raw JSON text the model
// produced. Validation and decoding happen in the Tutor.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}
