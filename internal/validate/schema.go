package validate

import (
	_ "embed"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

//go:embed schema.json
var schemaDocument []byte

// Schema is the versioned structural contract for emitted records. The
// validator consumes its version tag and per-kind constraints; it never
// authors the document.
type Schema struct {
	Version string               `json:"version"`
	Kinds   map[string]KindShape `json:"kinds"`
}

// KindShape lists the structural requirements for one record kind.
type KindShape struct {
	Required []string `json:"required"`
}

// LoadSchema parses the embedded schema document.
func LoadSchema() (*Schema, error) {
	schema := &Schema{}
	if err := json.Unmarshal(schemaDocument, schema); err != nil {
		return nil, errors.Wrap(err, "parse embedded schema")
	}
	if schema.Version == "" || len(schema.Kinds) == 0 {
		return nil, errors.New("embedded schema is missing version or kinds")
	}
	return schema, nil
}
