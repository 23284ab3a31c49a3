package moduleconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// actionConfigSchema is the boundary contract for persisted configuration
// documents. Presence checks live here, not in the order builder.
const actionConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["actionType", "targetAudience"],
  "properties": {
    "actionType": {"type": "string", "enum": ["FORM", "SIGNATURE"]},
    "targetAudience": {
      "oneOf": [
        {"type": "string", "minLength": 1},
        {"type": "array", "items": {"type": "string", "minLength": 1}, "minItems": 1}
      ]
    },
    "allowedFormIds": {"type": "array", "items": {"type": "string"}},
    "allowedTemplateIds": {"type": "array", "items": {"type": "string"}},
    "templateId": {"type": "string"},
    "managementMode": {"type": "string", "enum": ["AI", "HUMAN"]},
    "verificationMode": {"type": "string", "enum": ["AI", "HUMAN"]},
    "reminderConfig": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "delayDays": {"type": "integer", "minimum": 0},
        "maxRemindersBeforeTask": {"type": "integer", "minimum": 0}
      }
    },
    "partnerId": {"type": "string"},
    "partnerInstructions": {"type": "string"},
    "isBlocking": {"type": "boolean"}
  }
}`

var compiledSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://veltia.schemas.local/module-action-config.schema.json"
	if err := c.AddResource(url, strings.NewReader(actionConfigSchema)); err != nil {
		panic(fmt.Sprintf("moduleconfig: schema resource: %v", err))
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("moduleconfig: schema compile: %v", err))
	}
	return s
}

// Parse validates a raw configuration document against the schema and decodes
// it. It is the only supported way to turn persisted JSON into an ActionConfig.
func Parse(raw []byte) (*ActionConfig, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("configuration illisible: %w", err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("configuration invalide: %w", err)
	}

	var cfg ActionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("configuration illisible: %w", err)
	}
	return &cfg, nil
}
