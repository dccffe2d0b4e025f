package coerce

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Func is a unary value transformation.
type Func func(any) (any, error)

// Table maps operation names to their implementations. A Table is a plain map;
// callers that share one across goroutines must stop mutating it first.
type Table map[string]Func

// Default returns a fresh table holding the built-in operations.
func Default() Table {
	return Table{
		"stringify": Stringify,
		"string":    Stringify,
		"number":    Number,
		"int":       Int,
		"bool":      Bool,
		"list":      List,
		"set":       Set,
		"symbol":    Symbol,
		"upcase":    Upcase,
		"downcase":  Downcase,
	}
}

// Clone returns a shallow copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Names returns the registered operation names, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves name to an operation. Names not registered in the table are
// tried as HCL type expressions such as "list(string)" or "map(number)".
func (t Table) Lookup(name string) (Func, bool) {
	if fn, ok := t[name]; ok && fn != nil {
		return fn, true
	}
	ty, err := TypeExpr(name)
	if err != nil {
		return nil, false
	}
	return ToType(ty), true
}

var typeCache sync.Map // string -> cty.Type

// TypeExpr parses an HCL type expression.
func TypeExpr(src string) (cty.Type, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return cty.NilType, errors.New("coerce: empty type expression")
	}
	if v, ok := typeCache.Load(src); ok {
		return v.(cty.Type), nil
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<coerce>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("coerce: %s", diags.Error())
	}
	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("coerce: %s", diags.Error())
	}
	typeCache.Store(src, ty)
	return ty, nil
}

// ToType returns an operation converting values to ty through cty's
// conversion rules.
func ToType(ty cty.Type) Func {
	return func(v any) (any, error) {
		cv, err := ToCty(v)
		if err != nil {
			return nil, err
		}
		out, err := convert.Convert(cv, ty)
		if err != nil {
			return nil, fmt.Errorf("coerce: cannot convert to %s: %w", ty.FriendlyName(), err)
		}
		return FromCty(out)
	}
}

// Stringify renders scalars as strings. fmt.Stringer values use their String
// method. nil stays nil.
func Stringify(v any) (any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return ToType(cty.String)(v)
}

// Number converts to float64.
func Number(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	cv, err := ToCty(v)
	if err != nil {
		return nil, err
	}
	out, err := convert.Convert(cv, cty.Number)
	if err != nil {
		return nil, fmt.Errorf("coerce: cannot convert to number: %w", err)
	}
	if out.IsNull() {
		return nil, nil
	}
	f, _ := out.AsBigFloat().Float64()
	return f, nil
}

// Int converts to int64, rejecting fractional values.
func Int(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	cv, err := ToCty(v)
	if err != nil {
		return nil, err
	}
	out, err := convert.Convert(cv, cty.Number)
	if err != nil {
		return nil, fmt.Errorf("coerce: cannot convert to int: %w", err)
	}
	if out.IsNull() {
		return nil, nil
	}
	bf := out.AsBigFloat()
	if !bf.IsInt() {
		return nil, fmt.Errorf("coerce: %s is not a whole number", bf.Text('g', -1))
	}
	i, acc := bf.Int64()
	if acc != 0 {
		return nil, fmt.Errorf("coerce: %s overflows int64", bf.Text('g', -1))
	}
	return i, nil
}

// Bool converts to bool. Strings "true" and "false" are accepted.
func Bool(v any) (any, error) {
	return ToType(cty.Bool)(v)
}

// List wraps a scalar in a one-element slice and copies slices into []any.
// nil becomes an empty slice.
func List(v any) (any, error) {
	if v == nil {
		return []any{}, nil
	}
	if items, ok := sliceItems(v); ok {
		return items, nil
	}
	return []any{v}, nil
}

// Set behaves like List and drops repeated elements, keeping first occurrence
// order. Elements must be comparable.
func Set(v any) (any, error) {
	l, _ := List(v)
	items := l.([]any)
	seen := make(map[any]struct{}, len(items))
	out := make([]any, 0, len(items))
	for _, it := range items {
		if !isComparable(it) {
			return nil, fmt.Errorf("coerce: set element of type %T is not comparable", it)
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

// Symbol stringifies and trims surrounding whitespace.
func Symbol(v any) (any, error) {
	s, err := Stringify(v)
	if err != nil || s == nil {
		return s, err
	}
	return strings.TrimSpace(s.(string)), nil
}

// Upcase stringifies and upper-cases.
func Upcase(v any) (any, error) {
	s, err := Stringify(v)
	if err != nil || s == nil {
		return s, err
	}
	return strings.ToUpper(s.(string)), nil
}

// Downcase stringifies and lower-cases.
func Downcase(v any) (any, error) {
	s, err := Stringify(v)
	if err != nil || s == nil {
		return s, err
	}
	return strings.ToLower(s.(string)), nil
}
