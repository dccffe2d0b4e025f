package manifest

import (
	"fmt"
	"sort"

	"github.com/ggoodman/assembly-go/assembly"
	"github.com/ggoodman/assembly-go/coerce"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclRoot struct {
	Parameters []*hclParameter `hcl:"parameter,block"`
}

type hclParameter struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// ParseHCL parses parameter blocks:
//
//	parameter "port" {
//	  default     = 8080
//	  coerce      = int
//	  aliases     = ["listen_port"]
//	  description = "TCP port to listen on"
//	}
//
// coerce accepts a bare operation name, a quoted name, or a type expression
// such as list(string). Presence of default makes the parameter optional,
// including default = null.
func ParseHCL(src []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: parse %s: %w", filename, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("manifest: decode %s: %w", filename, diags)
	}

	m := &Manifest{Path: filename, Format: FormatHCL}
	for _, p := range root.Parameters {
		d, diags := hclDeclaration(p)
		if diags.HasErrors() {
			return nil, fmt.Errorf("manifest: parameter %q in %s: %w", p.Name, filename, diags)
		}
		m.declarations = append(m.declarations, d)
	}
	return m, nil
}

func hclDeclaration(p *hclParameter) (assembly.Declaration, hcl.Diagnostics) {
	d := assembly.Declaration{Name: p.Name}
	attrs, diags := p.Body.JustAttributes()
	if diags.HasErrors() {
		return d, diags
	}

	names := make([]string, 0, len(attrs))
	for n := range attrs {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		attr := attrs[n]
		switch n {
		case "default":
			v, vd := attr.Expr.Value(nil)
			diags = append(diags, vd...)
			if vd.HasErrors() {
				continue
			}
			goVal, err := coerce.FromCty(v)
			if err != nil {
				diags = append(diags, attrError(attr, "Invalid default", err.Error()))
				continue
			}
			d.HasDefault = true
			d.Default = goVal
		case "coerce":
			c, cd := hclCoercion(attr.Expr)
			diags = append(diags, cd...)
			d.Coerce = c
		case "alias", "aliases":
			v, vd := attr.Expr.Value(nil)
			diags = append(diags, vd...)
			if vd.HasErrors() {
				continue
			}
			aliases, err := stringsOf(v)
			if err != nil {
				diags = append(diags, attrError(attr, "Invalid aliases", err.Error()))
				continue
			}
			d.Aliases = append(d.Aliases, aliases...)
		case "description":
			v, vd := attr.Expr.Value(nil)
			diags = append(diags, vd...)
			if vd.HasErrors() {
				continue
			}
			if v.IsNull() || !v.Type().Equals(cty.String) {
				diags = append(diags, attrError(attr, "Invalid description", "description must be a string"))
				continue
			}
			d.Description = v.AsString()
		default:
			diags = append(diags, attrError(attr, "Unsupported argument", fmt.Sprintf("An argument named %q is not expected here.", n)))
		}
	}
	return d, diags
}

// hclCoercion reads a coercion reference. Bare keywords and strings name an
// operation; anything else must be a type expression.
func hclCoercion(expr hcl.Expression) (assembly.Coercion, hcl.Diagnostics) {
	if kw := hcl.ExprAsKeyword(expr); kw != "" {
		return assembly.Named(kw), nil
	}
	if v, diags := expr.Value(nil); !diags.HasErrors() && !v.IsNull() && v.Type().Equals(cty.String) {
		return assembly.Named(v.AsString()), nil
	}
	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return assembly.NoCoercion(), diags
	}
	return assembly.Named(typeexpr.TypeString(ty)), nil
}

func stringsOf(v cty.Value) ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.Type().Equals(cty.String) {
		return []string{v.AsString()}, nil
	}
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("expected a string or a list of strings, got %s", v.Type().FriendlyName())
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.IsNull() || !ev.Type().Equals(cty.String) {
			return nil, fmt.Errorf("expected a list of strings, got an element of type %s", ev.Type().FriendlyName())
		}
		out = append(out, ev.AsString())
	}
	return out, nil
}

func attrError(attr *hcl.Attribute, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  attr.Expr.Range().Ptr(),
	}
}
