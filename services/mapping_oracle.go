package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

type headerFieldMapping struct {
	Header string `json:"header" jsonschema_description:"Spreadsheet column header exactly as given"`
	Target string `json:"target" jsonschema_description:"Canonical field name, \"skip\" to drop the column, or \"custom:<name>\" to keep it as a custom field"`
}

type headerMappingResponse struct {
	Mappings []headerFieldMapping `json:"mappings" jsonschema_description:"One entry per input header"`
}

func generateSchema[T any]() interface{} {
	// Structured Outputs uses a subset of JSON schema; these flags keep the
	// generated schema inside that subset.
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var headerMappingSchema = generateSchema[headerMappingResponse]()

// OpenAIMappingOracle maps headers to canonical fields through a chat
// completion with a strict JSON-schema response format.
type OpenAIMappingOracle struct {
	client  *openai.Client
	model   openai.ChatModel
	timeout time.Duration
}

var _ MappingOracle = (*OpenAIMappingOracle)(nil)

func NewOpenAIMappingOracle(apiKey string) *OpenAIMappingOracle {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIMappingOracle{
		client:  &client,
		model:   openai.ChatModelGPT4oMini,
		timeout: 25 * time.Second,
	}
}

func (o *OpenAIMappingOracle) MapHeaders(ctx context.Context, headers []string, samples map[string][]string) (map[string]string, error) {
	system := "You map spreadsheet column headers from wine collection exports to canonical cellar fields. " +
		"Use the sample values to disambiguate. If a header matches no field, use \"custom:<header>\" to keep it " +
		"or \"skip\" to drop it. Return ONLY the JSON required by the schema."

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	chat, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(buildMappingPrompt(headers, samples)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "header_mapping",
					Description: openai.String("Spreadsheet headers to cellar fields mapping"),
					Schema:      headerMappingSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
		Seed:  openai.Int(42),
		Model: o.model,
	})
	if err != nil {
		return nil, err
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("empty oracle response")
	}

	var response headerMappingResponse
	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return nil, fmt.Errorf("parse oracle response: %w", err)
	}

	mapping := make(map[string]string, len(response.Mappings))
	for _, m := range response.Mappings {
		mapping[m.Header] = m.Target
	}
	return mapping, nil
}

func buildMappingPrompt(headers []string, samples map[string][]string) string {
	var b strings.Builder
	b.WriteString("Canonical fields:\n")
	for _, f := range CanonicalFields() {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Description)
	}
	b.WriteString("\nHeaders to map:\n")
	for _, h := range headers {
		if values, ok := samples[h]; ok {
			fmt.Fprintf(&b, "- %q (sample values: %s)\n", h, strings.Join(values, ", "))
		} else {
			fmt.Fprintf(&b, "- %q\n", h)
		}
	}
	return b.String()
}
