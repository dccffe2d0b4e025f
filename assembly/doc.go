// Package assembly lets a type declare the named inputs it is constructed
// from and assembles instances of it from an options map and a fluent builder
// callback.
//
// A Schema is declared once and then used for any number of constructions:
//
//	type Server struct {
//	    Host string
//	    Port int
//	    Name string `assembly:"display_name"`
//	}
//
//	var serverSchema = assembly.NewSchema[Server]().
//	    Parameters([]string{"host"}, map[string]any{"port": 8080}).
//	    Parameter("display_name", assembly.Alias("name"), assembly.Default(""), assembly.CoerceNamed("stringify")).
//	    MustBuild()
//
//	srv, err := serverSchema.Construct(assembly.Options{"host": "localhost"}, func(b *assembly.Builder) error {
//	    return b.Set("port", 9090)
//	})
//
// Declarations
//
// Each parameter has a canonical name, optional aliases, an optional default
// and an optional coercion. A parameter without a default is required.
// Declaring a name again replaces the previous declaration as a whole while
// keeping its position. Aliases may not collide with another parameter's name
// or with an alias claimed by a different parameter; Build reports every such
// conflict at once.
//
// Coercions
//
// A coercion is NoCoercion, Named(op) or Func(fn). Named operations are first
// offered to values implementing NamedCoercer, then looked up in the schema's
// operation table: the built-ins of package coerce, anything registered with
// NamedCoercion, and cty type expressions such as "list(string)". Unknown
// names are only reported once a value is actually coerced.
//
// Precedence
//
// Defaults are overridden by the options map, which is overridden by the
// builder callback. Within the options map a parameter's canonical name beats
// its aliases, and earlier aliases beat later ones. A key mapped to nil is
// present. Option keys that match no declared name are ignored, but Builder
// access to an undeclared key fails with ErrUnknownAttribute, and that error
// fails the construction even when the callback drops it.
//
// Hooks
//
// Before hooks run, in declaration order, before any parameter is resolved.
// After hooks run once every value has been validated and committed; their
// Builder is sealed. A missing parameter fails the construction before any
// after hook runs, so after hooks cannot supply required values.
//
// Commit
//
// Values reach the instance through Receiver when *T implements it, or
// through exported struct fields matched by `assembly:"name"` tag or by
// case-insensitive name with underscores and dashes ignored. Schema[Values]
// is available when no dedicated type exists.
//
// Concurrency
//
// SchemaBuilder is not safe for concurrent use. A built Schema is immutable
// and Construct may be called from any number of goroutines; ConstructAll
// runs a batch with bounded concurrency.
package assembly
