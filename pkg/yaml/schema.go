package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator reflects a JSON schema from Go types. Field names follow
// the `json` struct tags; titles and descriptions come from `jsonschema` tags.
type SchemaGenerator struct {
	root any
}

// NewSchemaGenerator creates a [SchemaGenerator] for the type of root.
func NewSchemaGenerator(root any) *SchemaGenerator {
	return &SchemaGenerator{root: root}
}

// Schema returns the reflected schema.
func (g *SchemaGenerator) Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		FieldNameTag:   "json",
	}

	return r.Reflect(g.root)
}

// Generate returns the indented JSON encoding of the reflected schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	b, err := json.MarshalIndent(g.Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}
