package assembly

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes the schema's parameters as a flat JSON object schema.
// Properties appear in declaration order, parameters without a default are
// required, aliases are listed under "x-aliases" and coercions under
// "x-coerce". Defaults that cannot be encoded as JSON are omitted.
func (s *Schema[T]) JSONSchema() *jsonschema.Schema {
	out := &jsonschema.Schema{
		Type:       "object",
		Title:      s.typeName,
		Properties: jsonschema.NewProperties(),
	}
	for _, p := range s.reg.Parameters() {
		prop := &jsonschema.Schema{Description: p.description}
		if p.hasDefault {
			if _, err := json.Marshal(p.def); err == nil {
				prop.Default = p.def
			}
		} else {
			out.Required = append(out.Required, p.name)
		}
		extras := map[string]any{}
		if len(p.aliases) > 0 {
			extras["x-aliases"] = p.Aliases()
		}
		if !p.coercion.IsNone() {
			extras["x-coerce"] = p.coercion.String()
		}
		if len(extras) > 0 {
			prop.Extras = extras
		}
		out.Properties.Set(p.name, prop)
	}
	return out
}

// Fingerprint is the hex SHA-256 of the JSON encoded JSONSchema. Two schemas
// with the same declarations share a fingerprint.
func (s *Schema[T]) Fingerprint() string {
	b, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
