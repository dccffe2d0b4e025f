package assembly

import (
	"fmt"

	"github.com/ggoodman/assembly-go/coerce"
)

type coercionKind int

const (
	coerceNone coercionKind = iota
	coerceNamed
	coerceFunc
	coerceInvalid
)

// Coercion is the transformation applied to a raw parameter value before it
// is stored. It is one of NoCoercion, Named or Func; the zero value is
// NoCoercion.
type Coercion struct {
	kind coercionKind
	name string
	fn   func(any) (any, error)
	raw  any
}

// NamedCoercer is implemented by values that know how to apply some named
// operations to themselves. Named coercions ask the value first and fall back
// to the schema's operation table when ok is false.
type NamedCoercer interface {
	CoerceNamed(op string) (v any, ok bool, err error)
}

// NoCoercion returns the identity coercion.
func NoCoercion() Coercion { return Coercion{} }

// Named returns a coercion that invokes the named operation on the raw value.
func Named(op string) Coercion { return Coercion{kind: coerceNamed, name: op} }

// Func returns a coercion that calls fn with the raw value. A nil fn yields a
// coercion that fails with UnknownCoercionError when applied.
func Func(fn func(any) (any, error)) Coercion {
	if fn == nil {
		return Coercion{kind: coerceInvalid}
	}
	return Coercion{kind: coerceFunc, fn: fn}
}

// FuncOf adapts an infallible function.
func FuncOf(fn func(any) any) Coercion {
	if fn == nil {
		return Coercion{kind: coerceInvalid}
	}
	return Func(func(v any) (any, error) { return fn(v), nil })
}

// CoercionOf interprets a loosely typed coercion reference as found in option
// maps and manifests: nil means none, a string names an operation, and
// functions are callables. Anything else is kept and reported as an
// UnknownCoercionError when a value is first coerced.
func CoercionOf(v any) Coercion {
	switch c := v.(type) {
	case nil:
		return NoCoercion()
	case Coercion:
		return c
	case string:
		return Named(c)
	case func(any) (any, error):
		return Func(c)
	case coerce.Func:
		return Func(c)
	case func(any) any:
		return FuncOf(c)
	}
	return Coercion{kind: coerceInvalid, raw: v}
}

// IsNone reports whether c is the identity coercion.
func (c Coercion) IsNone() bool { return c.kind == coerceNone }

// String renders the coercion for logs and error messages.
func (c Coercion) String() string {
	switch c.kind {
	case coerceNone:
		return "none"
	case coerceNamed:
		return c.name
	case coerceFunc:
		return "func"
	}
	return fmt.Sprintf("invalid(%T)", c.raw)
}

// apply is the single dispatch point for every coercion kind.
func (c Coercion) apply(param string, v any, ops coerce.Table) (any, error) {
	switch c.kind {
	case coerceNone:
		return v, nil
	case coerceFunc:
		out, err := c.fn(v)
		if err != nil {
			return nil, &CoercionError{Parameter: param, Coercion: c.String(), Err: err}
		}
		return out, nil
	case coerceNamed:
		if nc, ok := v.(NamedCoercer); ok {
			out, supported, err := nc.CoerceNamed(c.name)
			if err != nil {
				return nil, &CoercionError{Parameter: param, Coercion: c.name, Err: err}
			}
			if supported {
				return out, nil
			}
		}
		if ops == nil {
			ops = defaultOps
		}
		fn, ok := ops.Lookup(c.name)
		if !ok {
			return nil, &UnknownCoercionError{Parameter: param, Coercion: c.name}
		}
		out, err := fn(v)
		if err != nil {
			return nil, &CoercionError{Parameter: param, Coercion: c.name, Err: err}
		}
		return out, nil
	}
	return nil, &UnknownCoercionError{Parameter: param, Coercion: c.String()}
}

// defaultOps is read-only; schemas copy it before adding their own operations.
var defaultOps = coerce.Default()
