package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mohammad-safakhou/contentagent/internal/helpers"
)

// JSON shapes the generator must answer with in JSON mode.
var (
	storeListContract = mustCompileContract("store_list.json", `{
  "type": "object",
  "required": ["stores"],
  "properties": {
    "stores": {
      "type": "array",
      "items": {"type": "object", "minProperties": 1, "additionalProperties": {"type": "string"}}
    }
  }
}`)
	informationContract = mustCompileContract("information.json", `{
  "type": "object",
  "required": ["information"],
  "properties": {"information": {"type": "string"}}
}`)
	paragraphsContract = mustCompileContract("paragraphs.json", `{
  "type": "object",
  "required": ["paragraphs"],
  "properties": {
    "paragraphs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["beschrijving_afbeelding", "paragraaf"],
        "properties": {
          "beschrijving_afbeelding": {"type": "string", "minLength": 1},
          "paragraaf": {"type": "string"}
        }
      }
    }
  }
}`)
	validationContract = mustCompileContract("validation.json", `{
  "type": "object",
  "required": ["valid"],
  "properties": {
    "valid": {"type": "boolean"},
    "feedback": {"type": "array", "items": {"type": "string"}}
  }
}`)
)

func mustCompileContract(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add contract %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decodeContract extracts the JSON value from raw, validates it against schema and
// decodes it into out.
func decodeContract(schema *jsonschema.Schema, raw string, out any) error {
	body, err := helpers.ExtractJSON(raw)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match contract: %w", err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
