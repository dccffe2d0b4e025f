package assembly

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Receiver is implemented by instance types that store parameter values
// themselves instead of relying on struct field binding. AssignParameter is
// called once per declared parameter during commit.
type Receiver interface {
	AssignParameter(name string, value any) error
}

// binder writes one resolved parameter into the instance.
type binder[T any] func(inst *T, name string, v any) error

// newBinder resolves, once per schema, how committed values reach a *T:
// through Receiver when *T implements it, otherwise through exported struct
// fields matched by `assembly:"name"` tag or by normalised field name.
func newBinder[T any](reg *Registry) (binder[T], error) {
	if _, ok := any(new(T)).(Receiver); ok {
		return func(inst *T, name string, v any) error {
			return any(inst).(Receiver).AssignParameter(name, v)
		}, nil
	}

	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		if reg.Len() == 0 {
			return func(*T, string, any) error { return nil }, nil
		}
		return nil, &DeclarationError{Reason: fmt.Sprintf("%s is neither a struct nor a Receiver", rt)}
	}

	fields, err := fieldIndex(rt)
	if err != nil {
		return nil, err
	}

	bindings := make(map[string]reflect.StructField, reg.Len())
	var errs []error
	for _, name := range reg.Names() {
		f, ok := fields.byTag[name]
		if !ok {
			f, ok = fields.byName[normalise(name)]
		}
		if !ok {
			errs = append(errs, &DeclarationError{Name: name, Reason: fmt.Sprintf("no field of %s is bound to it", rt)})
			continue
		}
		bindings[name] = f
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return func(inst *T, name string, v any) error {
		f, ok := bindings[name]
		if !ok {
			return nil
		}
		dst := reflect.ValueOf(inst).Elem().FieldByIndex(f.Index)
		if err := assignValue(dst, v); err != nil {
			return &AssignmentError{Parameter: name, Field: f.Name, Value: v, Reason: err.Error()}
		}
		return nil
	}, nil
}

type structFields struct {
	byTag  map[string]reflect.StructField
	byName map[string]reflect.StructField
}

func fieldIndex(rt reflect.Type) (structFields, error) {
	sf := structFields{
		byTag:  make(map[string]reflect.StructField),
		byName: make(map[string]reflect.StructField),
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Anonymous {
			continue
		}
		tag, hasTag := f.Tag.Lookup("assembly")
		tag = strings.Split(tag, ",")[0]
		if tag == "-" {
			continue
		}
		if !f.IsExported() {
			if hasTag && tag != "" {
				return sf, &DeclarationError{Name: tag, Reason: fmt.Sprintf("field %s.%s is unexported", rt, f.Name)}
			}
			continue
		}
		if tag != "" {
			sf.byTag[tag] = f
			continue
		}
		if _, dup := sf.byName[normalise(f.Name)]; !dup {
			sf.byName[normalise(f.Name)] = f
		}
	}
	return sf, nil
}

func normalise(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("_", "", "-", "").Replace(s)
}

// assignValue stores v in dst. nil yields the zero value and assignable values
// are set directly. Numbers convert to other numeric kinds only when the value
// fits without overflow or truncation. Slices and string-keyed maps are
// converted element by element.
func assignValue(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	return assignReflect(dst, src)
}

func assignReflect(dst, src reflect.Value) error {
	dt := dst.Type()
	if src.Kind() == reflect.Interface {
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		src = src.Elem()
	}
	st := src.Type()
	if st.AssignableTo(dt) {
		dst.Set(src)
		return nil
	}
	if dt.Kind() == reflect.Pointer && st.AssignableTo(dt.Elem()) {
		p := reflect.New(dt.Elem())
		p.Elem().Set(src)
		dst.Set(p)
		return nil
	}
	if isNumeric(st.Kind()) && isNumeric(dt.Kind()) {
		return convertNumeric(dst, src)
	}
	if scalarConvertible(st, dt) {
		dst.Set(src.Convert(dt))
		return nil
	}
	switch {
	case dt.Kind() == reflect.Slice && (src.Kind() == reflect.Slice || src.Kind() == reflect.Array):
		out := reflect.MakeSlice(dt, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assignReflect(out.Index(i), src.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case dt.Kind() == reflect.Map && src.Kind() == reflect.Map && dt.Key().Kind() == reflect.String && st.Key().Kind() == reflect.String:
		out := reflect.MakeMapWithSize(dt, src.Len())
		iter := src.MapRange()
		for iter.Next() {
			ev := reflect.New(dt.Elem()).Elem()
			if err := assignReflect(ev, iter.Value()); err != nil {
				return fmt.Errorf("[%q]: %w", iter.Key().String(), err)
			}
			out.SetMapIndex(iter.Key().Convert(dt.Key()), ev)
		}
		dst.Set(out)
		return nil
	}
	return fmt.Errorf("%s is not assignable to %s", st, dt)
}

// convertNumeric converts between numeric kinds, refusing values that would
// overflow dst or lose a fractional part.
func convertNumeric(dst, src reflect.Value) error {
	dt := dst.Type()
	switch {
	case isInt(dt.Kind()):
		var n int64
		switch {
		case isInt(src.Kind()):
			n = src.Int()
		case isUint(src.Kind()):
			u := src.Uint()
			if u > math.MaxInt64 {
				return fmt.Errorf("%d overflows %s", u, dt)
			}
			n = int64(u)
		default:
			f := src.Float()
			if err := wholeFloat(f, dt); err != nil {
				return err
			}
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return fmt.Errorf("%v overflows %s", f, dt)
			}
			n = int64(f)
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dt)
		}
		dst.SetInt(n)
	case isUint(dt.Kind()):
		var u uint64
		switch {
		case isInt(src.Kind()):
			n := src.Int()
			if n < 0 {
				return fmt.Errorf("%d overflows %s", n, dt)
			}
			u = uint64(n)
		case isUint(src.Kind()):
			u = src.Uint()
		default:
			f := src.Float()
			if err := wholeFloat(f, dt); err != nil {
				return err
			}
			if f < 0 || f >= math.MaxUint64 {
				return fmt.Errorf("%v overflows %s", f, dt)
			}
			u = uint64(f)
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("%d overflows %s", u, dt)
		}
		dst.SetUint(u)
	default:
		f := src.Convert(reflect.TypeOf(float64(0))).Float()
		if !math.IsInf(f, 0) && dst.OverflowFloat(f) {
			return fmt.Errorf("%v overflows %s", f, dt)
		}
		dst.SetFloat(f)
	}
	return nil
}

func wholeFloat(f float64, dt reflect.Type) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Errorf("%v is not a whole number and cannot be stored in %s", f, dt)
	}
	return nil
}

func scalarConvertible(st, dt reflect.Type) bool {
	switch {
	case st.Kind() == reflect.String && dt.Kind() == reflect.String:
		return true
	case st.Kind() == reflect.Bool && dt.Kind() == reflect.Bool:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
