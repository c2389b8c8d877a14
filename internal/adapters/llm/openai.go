package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// wrapKey holds array results: structured outputs only accept object roots.
const wrapKey = "items"

// OpenAIClient implements Backend for OpenAI and OpenAI-compatible APIs.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string, opts ...option.RequestOption) *OpenAIClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

// Generate implements Backend using a strict JSON schema response format.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	schema, wrapped := objectRoot(req.Schema)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(0.7),
	}
	if schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned empty content")
	}

	text := resp.Choices[0].Message.Content
	if !wrapped {
		return text, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return "", fmt.Errorf("openai returned malformed envelope: %w", err)
	}
	items, ok := envelope[wrapKey]
	if !ok {
		return "", fmt.Errorf("openai response is missing %q", wrapKey)
	}
	return string(items), nil
}

// objectRoot wraps non-object schemas in {"items": ...}.
func objectRoot(s *jsonschema.Schema) (*jsonschema.Schema, bool) {
	if s == nil || schemaType(s) == "object" {
		return s, false
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           map[string]*jsonschema.Schema{wrapKey: s},
		Required:             []string{wrapKey},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}, true
}
