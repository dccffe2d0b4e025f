// Package coerce holds the named value operations used by parameter
// coercions.
//
// A Table maps operation names to functions. Default() provides the built-in
// set:
//
//	stringify, string   scalar -> string (fmt.Stringer honoured)
//	number              -> float64
//	int                 -> int64, fractional values rejected
//	bool                -> bool ("true"/"false" strings accepted)
//	list                scalar -> []any{v}, slices copied to []any
//	set                 like list, repeated elements dropped
//	symbol              stringify + trim
//	upcase, downcase    stringify + case mapping
//
// Any name that is not registered is parsed as an HCL type expression
// ("list(string)", "map(number)", "set(bool)") and applied through cty's
// conversion rules. Conversion results are plain Go values: string, bool,
// int64, float64, []any and map[string]any.
package coerce
