package coerce

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToCty translates a Go value into a cty.Value. Slices become tuples and
// string-keyed maps become objects so heterogeneous []any and map[string]any
// survive; cty's conversion rules narrow them to lists, sets and maps later.
// Other types go through gocty's implied typing (structs need `cty` tags).
func ToCty(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}
	return toCty(reflect.ValueOf(v))
}

var ctyValueType = reflect.TypeOf(cty.NilVal)

func toCty(rv reflect.Value) (cty.Value, error) {
	if rv.IsValid() && rv.Type() == ctyValueType {
		return rv.Interface().(cty.Value), nil
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return toCty(rv.Elem())
	case reflect.String:
		return cty.StringVal(rv.String()), nil
	case reflect.Bool:
		return cty.BoolVal(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cty.NumberIntVal(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cty.NumberUIntVal(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return cty.NumberFloatVal(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return cty.EmptyTupleVal, nil
		}
		n := rv.Len()
		if n == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, n)
		for i := 0; i < n; i++ {
			ev, err := toCty(rv.Index(i))
			if err != nil {
				return cty.NilVal, fmt.Errorf("[%d]: %w", i, err)
			}
			vals[i] = ev
		}
		return cty.TupleVal(vals), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.Len() == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ev, err := toCty(iter.Value())
			if err != nil {
				return cty.NilVal, fmt.Errorf("[%q]: %w", iter.Key().String(), err)
			}
			attrs[iter.Key().String()] = ev
		}
		return cty.ObjectVal(attrs), nil
	}

	gv := rv.Interface()
	ty, err := gocty.ImpliedType(gv)
	if err != nil {
		return cty.NilVal, fmt.Errorf("coerce: unsupported value of type %T: %w", gv, err)
	}
	return gocty.ToCtyValue(gv, ty)
}

// FromCty translates a known cty.Value back into plain Go values: string,
// bool, int64 (whole numbers that fit), float64, []any and map[string]any.
func FromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("coerce: value is not known")
	}
	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return v.AsString(), nil
	case ty.Equals(cty.Bool):
		return v.True(), nil
	case ty.Equals(cty.Number):
		return numberToGo(v.AsBigFloat()), nil
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := FromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := FromCty(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	}
	return nil, fmt.Errorf("coerce: cannot represent %s as a Go value", ty.FriendlyName())
}

func numberToGo(bf *big.Float) any {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return i
		}
	}
	f, _ := bf.Float64()
	return f
}

func sliceItems(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return append([]any(nil), items...), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
