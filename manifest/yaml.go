package manifest

import (
	"fmt"

	"github.com/ggoodman/assembly-go/assembly"
	"gopkg.in/yaml.v3"
)

type yamlRoot struct {
	Parameters []map[string]any `yaml:"parameters"`
}

// ParseYAML parses a parameters list:
//
//	parameters:
//	  - name: port
//	    default: 8080
//	    coerce: int
//	    aliases: [listen_port]
//
// Entries accept the same keys as assembly.DeclarationFromMap plus name.
// A default key is a default even when its value is null.
func ParseYAML(src []byte, filename string) (*Manifest, error) {
	var root yamlRoot
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", filename, err)
	}

	m := &Manifest{Path: filename, Format: FormatYAML}
	for i, entry := range root.Parameters {
		name, ok := entry["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("manifest: %s: parameters[%d] needs a string name", filename, i)
		}
		rest := make(map[string]any, len(entry)-1)
		for k, v := range entry {
			if k != "name" {
				rest[k] = v
			}
		}
		d, err := assembly.DeclarationFromMap(name, rest)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s: parameters[%d]: %w", filename, i, err)
		}
		m.declarations = append(m.declarations, d)
	}
	return m, nil
}
