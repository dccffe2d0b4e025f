package assembly

// Options is the caller-supplied map of raw parameter values keyed by
// canonical name or alias. Keys that match no declared parameter are ignored.
type Options map[string]any

// OptionsOf converts a map with string-like keys (for example a named key
// type) into Options.
func OptionsOf[K ~string, V any](m map[K]V) Options {
	if m == nil {
		return nil
	}
	out := make(Options, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// With returns a copy of o with key set to v.
func (o Options) With(key string, v any) Options {
	out := make(Options, len(o)+1)
	for k, val := range o {
		out[k] = val
	}
	out[key] = v
	return out
}
