package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ggoodman/assembly-go/assembly"
)

// Format identifies the syntax a manifest was written in.
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
)

// Manifest is the parsed form of a parameter manifest file.
type Manifest struct {
	Path         string
	Format       Format
	declarations []assembly.Declaration
}

// Declarations returns the declared parameters in file order. A name that
// appears twice is returned twice; declaring them in order leaves the later
// one in effect.
func (m *Manifest) Declarations() []assembly.Declaration {
	if m == nil {
		return nil
	}
	return append([]assembly.Declaration(nil), m.declarations...)
}

// Names returns declared names in file order, without duplicates.
func (m *Manifest) Names() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, d := range m.Declarations() {
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d.Name)
	}
	return out
}

// Apply declares every parameter of m on sb.
func Apply[T any](sb *assembly.SchemaBuilder[T], m *Manifest) *assembly.SchemaBuilder[T] {
	return sb.Declare(m.Declarations()...)
}

// Parse picks the syntax from the file name's extension: .hcl for HCL,
// .yaml or .yml for YAML.
func Parse(src []byte, filename string) (*Manifest, error) {
	f, err := formatOf(filename)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatHCL:
		return ParseHCL(src, filename)
	default:
		return ParseYAML(src, filename)
	}
}

// LoadFile reads and parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	if _, err := formatOf(path); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(src, path)
}

func formatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("manifest: unsupported file extension %q", filepath.Ext(filename))
}
