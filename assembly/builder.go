package assembly

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Source records which stage of construction supplied a parameter's value.
type Source int

const (
	SourceUnset Source = iota
	SourceHook
	SourceDefault
	SourceOptions
	SourceCallback
)

func (s Source) String() string {
	switch s {
	case SourceHook:
		return "hook"
	case SourceDefault:
		return "default"
	case SourceOptions:
		return "options"
	case SourceCallback:
		return "callback"
	}
	return "unset"
}

// BuildFunc is the caller's fluent construction callback.
type BuildFunc func(b *Builder) error

// BuilderMethod is a named helper a schema exposes through Builder.Call.
type BuilderMethod func(b *Builder) error

// Builder stages parameter values for one construction call. Every declared
// name and alias is a key; aliases of one parameter share a single slot.
// Writes are coerced. Reads of an unassigned slot resolve against the options
// map and the default, so they always reflect coerced values.
//
// A Builder belongs to a single construction and must not be shared.
type Builder struct {
	reg     *Registry
	opts    Options
	methods map[string]BuilderMethod

	slots   map[string]any
	sources map[string]Source
	stage   Source
	sealed  bool
	err     error // first access error, surfaced by the engine
}

// NewBuilder returns a standalone builder over reg with opts as the fallback
// for unassigned reads.
func NewBuilder(reg *Registry, opts Options) *Builder {
	return newBuilder(reg, opts, nil)
}

func newBuilder(reg *Registry, opts Options, methods map[string]BuilderMethod) *Builder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Builder{
		reg:     reg,
		opts:    opts,
		methods: methods,
		slots:   make(map[string]any, reg.Len()),
		sources: make(map[string]Source, reg.Len()),
		stage:   SourceCallback,
	}
}

// Get returns the current value for key, or nil when it is unset and has
// neither an option value nor a default.
func (b *Builder) Get(key string) (any, error) {
	v, _, err := b.Lookup(key)
	return v, err
}

// Lookup is Get that also reports whether a value exists.
func (b *Builder) Lookup(key string) (any, bool, error) {
	p, err := b.param(key)
	if err != nil {
		return nil, false, err
	}
	if v, ok := b.slots[p.name]; ok {
		return v, true, nil
	}
	v, ok, err := p.Resolve(b.opts, nil)
	if err != nil {
		return nil, false, b.remember(err)
	}
	return v, ok, nil
}

// Set coerces v and stores it in the slot of the parameter named by key.
func (b *Builder) Set(key string, v any) error {
	if b.sealed {
		return b.remember(fmt.Errorf("%w: cannot set %q", ErrBuilderSealed, key))
	}
	p, err := b.param(key)
	if err != nil {
		return err
	}
	return b.assign(p, v)
}

// Has reports whether key is a declared name or alias.
func (b *Builder) Has(key string) bool {
	_, ok := b.reg.Lookup(key)
	return ok
}

// IsSet reports whether the slot for key was assigned during this call.
func (b *Builder) IsSet(key string) (bool, error) {
	p, err := b.param(key)
	if err != nil {
		return false, err
	}
	_, ok := b.slots[p.name]
	return ok, nil
}

// Keys returns every accessible key: each parameter's name then its aliases,
// in declaration order.
func (b *Builder) Keys() []string { return b.reg.Keys() }

// Snapshot returns canonical name -> value for slots assigned during this
// call.
func (b *Builder) Snapshot() map[string]any {
	out := make(map[string]any, len(b.slots))
	for k, v := range b.slots {
		out[k] = v
	}
	return out
}

// Source reports which stage last assigned the slot of key.
func (b *Builder) Source(key string) Source {
	p, ok := b.reg.Lookup(key)
	if !ok {
		return SourceUnset
	}
	return b.sources[p.name]
}

// Call invokes a builder method declared on the schema.
func (b *Builder) Call(method string) error {
	fn, ok := b.methods[method]
	if !ok {
		return b.remember(fmt.Errorf("%w: %q", ErrUnknownBuilderMethod, method))
	}
	return fn(b)
}

// Err returns the first access error recorded by this builder. Construction
// fails with it even when the callback discarded the error.
func (b *Builder) Err() error { return b.err }

func (b *Builder) param(key string) (*Parameter, error) {
	p, ok := b.reg.Lookup(key)
	if !ok {
		return nil, b.remember(&UnknownAttributeError{Name: key, Suggestion: b.suggest(key)})
	}
	return p, nil
}

func (b *Builder) assign(p *Parameter, raw any) error {
	v, err := p.Coerce(raw)
	if err != nil {
		return b.remember(err)
	}
	b.store(p, v)
	return nil
}

func (b *Builder) store(p *Parameter, v any) {
	b.slots[p.name] = v
	b.sources[p.name] = b.stage
}

func (b *Builder) isSet(name string) bool {
	_, ok := b.slots[name]
	return ok
}

func (b *Builder) remember(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

func (b *Builder) suggest(key string) string {
	best, bestDist := "", -1
	for _, k := range b.reg.Keys() {
		d := levenshtein.ComputeDistance(key, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	limit := len(key) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
