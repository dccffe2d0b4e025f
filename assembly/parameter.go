package assembly

import (
	"github.com/ggoodman/assembly-go/coerce"
	"github.com/huandu/go-clone"
)

// Declaration is the plain-data description of one parameter. It is what the
// declaration helpers and the manifest package produce.
type Declaration struct {
	Name        string
	Aliases     []string
	HasDefault  bool
	Default     any
	Coerce      Coercion
	Description string
}

// ParamOption configures a Declaration.
type ParamOption func(*Declaration)

// Default gives the parameter a default value, making it optional. A nil
// default is still a default.
func Default(v any) ParamOption {
	return func(d *Declaration) {
		d.HasDefault = true
		d.Default = v
	}
}

// Coerce sets the parameter's coercion.
func Coerce(c Coercion) ParamOption { return func(d *Declaration) { d.Coerce = c } }

// CoerceNamed is shorthand for Coerce(Named(op)).
func CoerceNamed(op string) ParamOption { return Coerce(Named(op)) }

// CoerceWith is shorthand for Coerce(Func(fn)).
func CoerceWith(fn func(any) (any, error)) ParamOption { return Coerce(Func(fn)) }

// Alias appends alternate keys for the parameter.
func Alias(names ...string) ParamOption {
	return func(d *Declaration) { d.Aliases = append(d.Aliases, names...) }
}

// Description attaches documentation used by JSONSchema.
func Description(text string) ParamOption { return func(d *Declaration) { d.Description = text } }

// Parameter is the immutable description of one named construction input.
type Parameter struct {
	name        string
	aliases     []string
	hasDefault  bool
	def         any
	coercion    Coercion
	description string
	ops         coerce.Table
}

// NewParameter builds a standalone parameter using the default operation
// table for named coercions.
func NewParameter(name string, opts ...ParamOption) *Parameter {
	d := Declaration{Name: name}
	for _, o := range opts {
		if o != nil {
			o(&d)
		}
	}
	return newParameter(d, nil)
}

func newParameter(d Declaration, ops coerce.Table) *Parameter {
	return &Parameter{
		name:        d.Name,
		aliases:     dedupe(d.Aliases, d.Name),
		hasDefault:  d.HasDefault,
		def:         d.Default,
		coercion:    d.Coerce,
		description: d.Description,
		ops:         ops,
	}
}

func (p *Parameter) Name() string        { return p.name }
func (p *Parameter) HasDefault() bool    { return p.hasDefault }
func (p *Parameter) Coercion() Coercion  { return p.coercion }
func (p *Parameter) Description() string { return p.description }

// Aliases returns a copy of the declared aliases.
func (p *Parameter) Aliases() []string { return append([]string(nil), p.aliases...) }

// Default returns a fresh copy of the raw (uncoerced) default value; slices
// and maps inside it are never shared between callers.
func (p *Parameter) Default() (any, bool) {
	if !p.hasDefault {
		return nil, false
	}
	return clone.Clone(p.def), true
}

// MatchKeys returns the canonical name followed by the aliases, which is the
// order in which option maps are searched.
func (p *Parameter) MatchKeys() []string {
	keys := make([]string, 0, 1+len(p.aliases))
	keys = append(keys, p.name)
	return append(keys, p.aliases...)
}

// Coerce applies the parameter's coercion to raw.
func (p *Parameter) Coerce(raw any) (any, error) {
	return p.coercion.apply(p.name, raw, p.ops)
}

// Resolve looks the parameter up in opts. The first present match key wins and
// its value is coerced. With no match the coerced default is returned. With
// neither, onMissing (if non-nil) is invoked and ok is false.
func (p *Parameter) Resolve(opts Options, onMissing func()) (v any, ok bool, err error) {
	if raw, _, found := p.lookup(opts); found {
		v, err = p.Coerce(raw)
		return v, err == nil, err
	}
	if def, has := p.Default(); has {
		v, err = p.Coerce(def)
		return v, err == nil, err
	}
	if onMissing != nil {
		onMissing()
	}
	return nil, false, nil
}

// lookup finds the raw option value for the first present match key.
// Presence is keyed: a nil value counts as present.
func (p *Parameter) lookup(opts Options) (raw any, key string, ok bool) {
	if len(opts) == 0 {
		return nil, "", false
	}
	if raw, ok := opts[p.name]; ok {
		return raw, p.name, true
	}
	for _, a := range p.aliases {
		if raw, ok := opts[a]; ok {
			return raw, a, true
		}
	}
	return nil, "", false
}

func (p *Parameter) declaration() Declaration {
	return Declaration{
		Name:        p.name,
		Aliases:     p.Aliases(),
		HasDefault:  p.hasDefault,
		Default:     p.def,
		Coerce:      p.coercion,
		Description: p.description,
	}
}

func dedupe(names []string, skip string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := map[string]struct{}{skip: {}}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
