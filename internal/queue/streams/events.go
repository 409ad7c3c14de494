package streams

import (
	"fmt"

	"github.com/mohammad-safakhou/contentagent/models"
)

const (
	EventContentRequested = "content.requested"
	EventContentCompleted = "content.completed"

	// PayloadV1 is the only payload version currently published.
	PayloadV1 = "v1"
)

// ContentRequested asks a worker to generate an article.
type ContentRequested struct {
	OrgID       string          `json:"org_id"`
	ModuleID    int64           `json:"module_id"`
	FormData    models.FormData `json:"form_data"`
	RequestedBy string          `json:"requested_by,omitempty"`
}

// ContentCompleted reports the outcome of one content request.
type ContentCompleted struct {
	RequestEventID string `json:"request_event_id"`
	OrgID          string `json:"org_id"`
	ModuleID       int64  `json:"module_id"`
	ContentItemID  int64  `json:"content_item_id,omitempty"`
	Status         string `json:"status"`
	ArticleID      int64  `json:"article_id,omitempty"`
	Slug           string `json:"slug,omitempty"`
	Stage          string `json:"stage,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Definition describes a schema entry managed by the registry.
type Definition struct {
	EventType string
	Version   string
	Schema    []byte
}

var baseDefinitions = []Definition{
	{
		EventType: EventContentRequested,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["org_id", "module_id", "form_data"],
  "properties": {
    "org_id": {"type": "string", "minLength": 1},
    "module_id": {"type": "integer", "minimum": 1},
    "form_data": {
      "type": "object",
      "required": ["titel"],
      "properties": {"titel": {"type": "string", "minLength": 1}}
    },
    "requested_by": {"type": "string"}
  },
  "additionalProperties": true
}`),
	},
	{
		EventType: EventContentCompleted,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["request_event_id", "org_id", "module_id", "status"],
  "properties": {
    "request_event_id": {"type": "string", "minLength": 1},
    "org_id": {"type": "string"},
    "module_id": {"type": "integer"},
    "content_item_id": {"type": "integer"},
    "status": {"type": "string", "enum": ["published", "failed", "rejected"]},
    "article_id": {"type": "integer"},
    "slug": {"type": "string"},
    "stage": {"type": "string"},
    "error": {"type": "string"}
  },
  "additionalProperties": false
}`),
	},
}

// BaseDefinitions returns the built-in schema definitions.
func BaseDefinitions() []Definition {
	defs := make([]Definition, len(baseDefinitions))
	copy(defs, baseDefinitions)
	return defs
}

// RegisterBaseSchemas loads the content event schemas into reg.
func RegisterBaseSchemas(reg *SchemaRegistry) error {
	if reg == nil {
		return fmt.Errorf("registry is nil")
	}
	for _, def := range baseDefinitions {
		if err := reg.Register(def.EventType, def.Version, def.Schema); err != nil {
			return fmt.Errorf("register %s %s: %w", def.EventType, def.Version, err)
		}
	}
	return nil
}

// NewContentRegistry returns a registry preloaded with the content event schemas.
func NewContentRegistry() (*SchemaRegistry, error) {
	reg := NewSchemaRegistry()
	if err := RegisterBaseSchemas(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
