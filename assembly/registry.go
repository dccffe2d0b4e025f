package assembly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ggoodman/assembly-go/coerce"
)

// Registry is the ordered set of parameters declared for one type.
// Redeclaring a name replaces the whole prior parameter while keeping its
// original position. A Registry is not safe for concurrent mutation; once
// frozen inside a Schema it is only read.
type Registry struct {
	order  []string
	params map[string]*Parameter
	index  map[string]*Parameter // canonical names and aliases
	ops    coerce.Table
}

// NewRegistry returns an empty registry whose named coercions use the default
// operation table.
func NewRegistry() *Registry { return newRegistry(nil) }

func newRegistry(ops coerce.Table) *Registry {
	return &Registry{
		params: make(map[string]*Parameter),
		index:  make(map[string]*Parameter),
		ops:    ops,
	}
}

// Declare stores d, replacing any parameter with the same name.
func (r *Registry) Declare(d Declaration) error {
	if strings.TrimSpace(d.Name) == "" {
		return &DeclarationError{Reason: "empty parameter name"}
	}
	for _, a := range d.Aliases {
		if strings.TrimSpace(a) == "" {
			return &DeclarationError{Name: d.Name, Reason: "empty alias"}
		}
	}
	if _, exists := r.params[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.params[d.Name] = newParameter(d, r.ops)
	r.reindex()
	return nil
}

// DeclareMany declares each required name without a default, then each
// optional entry with its value as default. Optional names are declared in
// sorted order since map iteration order is unspecified.
func (r *Registry) DeclareMany(required []string, optional map[string]any) error {
	for _, name := range required {
		if err := r.Declare(Declaration{Name: name}); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(optional) {
		if err := r.Declare(Declaration{Name: name, HasDefault: true, Default: optional[name]}); err != nil {
			return err
		}
	}
	return nil
}

// DeclareOptions declares name from a loosely typed option map. Recognised
// keys are default, coerce, alias, aliases and description; alias and aliases
// accept a single string or a list and are merged.
func (r *Registry) DeclareOptions(name string, opts map[string]any) error {
	d, err := DeclarationFromMap(name, opts)
	if err != nil {
		return err
	}
	return r.Declare(d)
}

// DeclarationFromMap converts the loose option-map form into a Declaration.
func DeclarationFromMap(name string, opts map[string]any) (Declaration, error) {
	d := Declaration{Name: name}
	for _, k := range sortedKeys(opts) {
		v := opts[k]
		switch k {
		case "default":
			d.HasDefault = true
			d.Default = v
		case "coerce":
			d.Coerce = CoercionOf(v)
		case "alias", "aliases":
			names, err := stringList(v)
			if err != nil {
				return Declaration{}, &DeclarationError{Name: name, Reason: fmt.Sprintf("%s: %v", k, err)}
			}
			d.Aliases = append(d.Aliases, names...)
		case "description":
			s, ok := v.(string)
			if !ok {
				return Declaration{}, &DeclarationError{Name: name, Reason: fmt.Sprintf("description must be a string, got %T", v)}
			}
			d.Description = s
		default:
			return Declaration{}, &DeclarationError{Name: name, Reason: fmt.Sprintf("unrecognised option %q", k)}
		}
	}
	return d, nil
}

// Len returns the number of declared parameters.
func (r *Registry) Len() int { return len(r.order) }

// Names returns canonical names in declaration order.
func (r *Registry) Names() []string { return append([]string(nil), r.order...) }

// Parameters returns the parameters in declaration order.
func (r *Registry) Parameters() []*Parameter {
	out := make([]*Parameter, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.params[n])
	}
	return out
}

// Required returns parameters without a default, in declaration order.
func (r *Registry) Required() []*Parameter {
	var out []*Parameter
	for _, p := range r.Parameters() {
		if !p.hasDefault {
			out = append(out, p)
		}
	}
	return out
}

// Optional returns parameters with a default, in declaration order.
func (r *Registry) Optional() []*Parameter {
	var out []*Parameter
	for _, p := range r.Parameters() {
		if p.hasDefault {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the parameter with canonical name.
func (r *Registry) Get(name string) (*Parameter, bool) {
	p, ok := r.params[name]
	return p, ok
}

// Lookup resolves a canonical name or alias. Canonical names shadow aliases.
func (r *Registry) Lookup(key string) (*Parameter, bool) {
	p, ok := r.index[key]
	return p, ok
}

// Keys returns every canonical name and alias, grouped per parameter in
// declaration order.
func (r *Registry) Keys() []string {
	var keys []string
	for _, p := range r.Parameters() {
		keys = append(keys, p.MatchKeys()...)
	}
	return keys
}

func (r *Registry) reindex() {
	idx := make(map[string]*Parameter, len(r.order))
	for _, n := range r.order {
		idx[n] = r.params[n]
	}
	for _, n := range r.order {
		p := r.params[n]
		for _, a := range p.aliases {
			if _, taken := idx[a]; !taken {
				idx[a] = p
			}
		}
	}
	r.index = idx
}

// conflicts reports aliases that shadow another parameter's name or are
// claimed by more than one parameter.
func (r *Registry) conflicts() []error {
	var errs []error
	owner := make(map[string]string)
	for _, n := range r.order {
		for _, a := range r.params[n].aliases {
			if _, isName := r.params[a]; isName {
				errs = append(errs, &DeclarationError{Name: n, Reason: fmt.Sprintf("alias %q is the name of another parameter", a)})
				continue
			}
			if prev, dup := owner[a]; dup {
				errs = append(errs, &DeclarationError{Name: n, Reason: fmt.Sprintf("alias %q is already an alias of %s", a, prev)})
				continue
			}
			owner[a] = n
		}
	}
	return errs
}

// freeze returns a copy whose parameters use ops for named coercions.
func (r *Registry) freeze(ops coerce.Table) *Registry {
	out := newRegistry(ops)
	for _, n := range r.order {
		out.order = append(out.order, n)
		out.params[n] = newParameter(r.params[n].declaration(), ops)
	}
	out.reindex()
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringList(v any) ([]string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{s}, nil
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, it := range s {
			str, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", it)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected string or list of strings, got %T", v)
}
