package llm

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// LLM output is untrusted until it matches the feature's schema; a mismatch
// is a PARSE_ERROR, not a partial result.

const cardFieldSchema = `{
	"type": "object",
	"required": ["value", "confidence"],
	"properties": {
		"value": {"type": "string"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100}
	}
}`

var schemaSources = map[string]string{
	"card-extraction": fmt.Sprintf(`{
		"type": "object",
		"required": ["name", "title", "company", "email", "phone", "website", "address"],
		"properties": {
			"name": %[1]s,
			"title": %[1]s,
			"company": %[1]s,
			"email": %[1]s,
			"phone": %[1]s,
			"website": %[1]s,
			"address": %[1]s
		}
	}`, cardFieldSchema),

	"meeting-insights": `{
		"type": "object",
		"required": ["summary", "customer_needs", "buying_signals", "objections", "lead_score", "action_items", "next_steps"],
		"properties": {
			"summary": {"type": "string", "minLength": 1},
			"customer_needs": {"type": "array", "items": {"type": "string"}},
			"buying_signals": {"type": "array", "items": {"type": "string"}},
			"objections": {"type": "array", "items": {"type": "string"}},
			"lead_score": {"type": "integer", "minimum": 0, "maximum": 100},
			"action_items": {"type": "array", "items": {"type": "string"}},
			"next_steps": {"type": "string"}
		}
	}`,

	"email-draft": `{
		"type": "object",
		"required": ["subject", "body", "tone_used"],
		"properties": {
			"subject": {"type": "string", "minLength": 1},
			"body": {"type": "string", "minLength": 1},
			"tone_used": {"type": "string"}
		}
	}`,

	"coaching-tip": `{
		"type": "object",
		"required": ["tip", "category", "urgency"],
		"properties": {
			"tip": {"type": "string", "minLength": 1},
			"category": {"type": "string"},
			"urgency": {"type": "string"}
		}
	}`,
}

var schemas map[string]*gojsonschema.Schema

func init() {
	schemas = make(map[string]*gojsonschema.Schema, len(schemaSources))
	for name, source := range schemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			panic(fmt.Sprintf("invalid llm output schema %s: %v", name, err))
		}
		schemas[name] = schema
	}
}

// checkSchema validates raw JSON against a named schema, mapping any
// mismatch to ErrUnparseable.
func checkSchema(name, raw string) error {
	schema, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown llm output schema: %s", name)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %v", ErrUnparseable, result.Errors())
	}
	return nil
}
