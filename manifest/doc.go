// Package manifest reads parameter declarations from HCL or YAML files so a
// schema's inputs can be described outside of Go code, and watches such files
// for changes.
//
// A manifest only carries declarations. Hooks, builder methods and the
// instance type stay in Go:
//
//	m, err := manifest.LoadFile("server.hcl")
//	if err != nil {
//	    return err
//	}
//	schema, err := manifest.Apply(assembly.NewSchema[assembly.Values](), m).Build()
//
// Coercions are referenced by name, so operations registered with
// SchemaBuilder.NamedCoercion are available to manifests too.
package manifest
