package assembly

// Values is a ready-made instance type that stores committed parameters by
// canonical name, in commit (declaration) order. Use Schema[Values] when no
// dedicated struct exists.
type Values struct {
	order []string
	m     map[string]any
}

var _ Receiver = (*Values)(nil)

// AssignParameter implements Receiver.
func (v *Values) AssignParameter(name string, value any) error {
	if v.m == nil {
		v.m = make(map[string]any)
	}
	if _, exists := v.m[name]; !exists {
		v.order = append(v.order, name)
	}
	v.m[name] = value
	return nil
}

// Get returns the value stored for name.
func (v *Values) Get(name string) (any, bool) {
	val, ok := v.m[name]
	return val, ok
}

// Has reports whether name was committed.
func (v *Values) Has(name string) bool {
	_, ok := v.m[name]
	return ok
}

// Len returns the number of stored parameters.
func (v *Values) Len() int { return len(v.order) }

// Names returns stored names in commit order.
func (v *Values) Names() []string { return append([]string(nil), v.order...) }

// Map returns a copy of the stored values.
func (v *Values) Map() map[string]any {
	out := make(map[string]any, len(v.m))
	for k, val := range v.m {
		out[k] = val
	}
	return out
}
