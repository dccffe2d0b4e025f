package assembly

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/ggoodman/assembly-go/coerce"
	"github.com/ggoodman/assembly-go/internal/logctx"
)

// Hook runs against the instance under construction. Before hooks get a
// writable Builder; after hooks get the sealed Builder, which still answers
// reads with the committed values.
type Hook[T any] func(inst *T, b *Builder) error

// SchemaBuilder collects the declarations for instances of T. It is used
// during a declaration phase from a single goroutine; Build freezes the
// current declarations into an immutable Schema. Declaring more after Build
// and building again yields a new Schema and leaves earlier ones untouched.
//
// Usage:
//
//	s := assembly.NewSchema[Server]().
//	    Parameters([]string{"host"}, map[string]any{"port": 8080}).
//	    Parameter("name", assembly.Alias("label"), assembly.CoerceNamed("stringify")).
//	    AfterConstruction(func(s *Server, _ *assembly.Builder) error { return s.validate() }).
//	    MustBuild()
//
//	srv, err := s.Construct(assembly.Options{"host": "localhost"}, nil)
type SchemaBuilder[T any] struct {
	reg     *Registry
	before  []Hook[T]
	after   []Hook[T]
	methods map[string]BuilderMethod
	ops     coerce.Table
	logger  *slog.Logger
	cfg     Config
	errs    []error
}

// NewSchema starts the declarations for T.
func NewSchema[T any]() *SchemaBuilder[T] {
	ops := coerce.Default()
	return &SchemaBuilder[T]{
		reg:     newRegistry(ops),
		methods: make(map[string]BuilderMethod),
		ops:     ops,
		cfg:     DefaultConfig(),
	}
}

// WithLogger sets the logger used for construction and deprecation messages.
// slog.Default() is used otherwise.
func (sb *SchemaBuilder[T]) WithLogger(l *slog.Logger) *SchemaBuilder[T] {
	sb.logger = l
	return sb
}

// WithConfig replaces the engine configuration.
func (sb *SchemaBuilder[T]) WithConfig(cfg Config) *SchemaBuilder[T] {
	sb.cfg = cfg
	return sb
}

// Parameters declares required names (no default) and optional names with
// their defaults.
func (sb *SchemaBuilder[T]) Parameters(required []string, optional map[string]any) *SchemaBuilder[T] {
	sb.record(sb.reg.DeclareMany(required, optional))
	return sb
}

// Parameter declares or replaces a single parameter. A redeclaration replaces
// default, coercion and aliases as a whole.
func (sb *SchemaBuilder[T]) Parameter(name string, opts ...ParamOption) *SchemaBuilder[T] {
	d := Declaration{Name: name}
	for _, o := range opts {
		if o != nil {
			o(&d)
		}
	}
	sb.record(sb.reg.Declare(d))
	return sb
}

// Shared declares several names that take the same options.
func (sb *SchemaBuilder[T]) Shared(names []string, opts ...ParamOption) *SchemaBuilder[T] {
	for _, n := range names {
		sb.Parameter(n, opts...)
	}
	return sb
}

// ParameterOptions declares name from a loose option map with the keys
// default, coerce, alias, aliases and description.
func (sb *SchemaBuilder[T]) ParameterOptions(name string, opts map[string]any) *SchemaBuilder[T] {
	sb.record(sb.reg.DeclareOptions(name, opts))
	return sb
}

// Declare adds fully formed declarations, e.g. those read from a manifest.
func (sb *SchemaBuilder[T]) Declare(decls ...Declaration) *SchemaBuilder[T] {
	for _, d := range decls {
		sb.record(sb.reg.Declare(d))
	}
	return sb
}

// BeforeConstruction appends a hook run before any parameter is resolved.
func (sb *SchemaBuilder[T]) BeforeConstruction(h Hook[T]) *SchemaBuilder[T] {
	if h == nil {
		sb.record(&DeclarationError{Reason: "nil before hook"})
		return sb
	}
	sb.before = append(sb.before, h)
	return sb
}

// AfterConstruction appends a hook run once the instance is fully populated.
func (sb *SchemaBuilder[T]) AfterConstruction(h Hook[T]) *SchemaBuilder[T] {
	if h == nil {
		sb.record(&DeclarationError{Reason: "nil after hook"})
		return sb
	}
	sb.after = append(sb.after, h)
	return sb
}

// BuilderMethod exposes fn to construction callbacks as b.Call(name).
func (sb *SchemaBuilder[T]) BuilderMethod(name string, fn BuilderMethod) *SchemaBuilder[T] {
	switch {
	case strings.TrimSpace(name) == "":
		sb.record(&DeclarationError{Reason: "empty builder method name"})
	case fn == nil:
		sb.record(&DeclarationError{Name: name, Reason: "nil builder method"})
	default:
		if _, dup := sb.methods[name]; dup {
			sb.record(&DeclarationError{Name: name, Reason: "builder method declared twice"})
			return sb
		}
		sb.methods[name] = fn
	}
	return sb
}

// NamedCoercion registers a named operation for this schema, shadowing a
// built-in of the same name.
func (sb *SchemaBuilder[T]) NamedCoercion(name string, fn func(any) (any, error)) *SchemaBuilder[T] {
	if strings.TrimSpace(name) == "" || fn == nil {
		sb.record(&DeclarationError{Name: name, Reason: "named coercion needs a name and a function"})
		return sb
	}
	sb.ops[name] = fn
	return sb
}

func (sb *SchemaBuilder[T]) record(err error) {
	if err != nil {
		sb.errs = append(sb.errs, err)
	}
}

// Build validates the declarations and returns an immutable Schema.
func (sb *SchemaBuilder[T]) Build() (*Schema[T], error) {
	errs := append([]error(nil), sb.errs...)
	errs = append(errs, sb.reg.conflicts()...)

	ops := sb.ops.Clone()
	reg := sb.reg.freeze(ops)

	bind, err := newBinder[T](reg)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("assembly: schema for %s: %w", typeName[T](), errors.Join(errs...))
	}

	methods := make(map[string]BuilderMethod, len(sb.methods))
	for k, v := range sb.methods {
		methods[k] = v
	}

	return &Schema[T]{
		reg:      reg,
		before:   append([]Hook[T](nil), sb.before...),
		after:    append([]Hook[T](nil), sb.after...),
		methods:  methods,
		bind:     bind,
		logger:   logctx.Wrap(sb.loggerOrDefault()),
		cfg:      sb.cfg,
		typeName: typeName[T](),
	}, nil
}

// MustBuild panics on error.
func (sb *SchemaBuilder[T]) MustBuild() *Schema[T] {
	s, err := sb.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (sb *SchemaBuilder[T]) loggerOrDefault() *slog.Logger {
	if sb.logger != nil {
		return sb.logger
	}
	return slog.Default()
}

// Schema is the frozen declaration set for T. It is safe for concurrent use.
type Schema[T any] struct {
	reg      *Registry
	before   []Hook[T]
	after    []Hook[T]
	methods  map[string]BuilderMethod
	bind     binder[T]
	logger   *slog.Logger
	cfg      Config
	typeName string
}

// Parameters returns the declared parameters in declaration order.
func (s *Schema[T]) Parameters() []*Parameter { return s.reg.Parameters() }

// Parameter returns the parameter with canonical name.
func (s *Schema[T]) Parameter(name string) (*Parameter, bool) { return s.reg.Get(name) }

// Names returns canonical names in declaration order.
func (s *Schema[T]) Names() []string { return s.reg.Names() }

// Required returns names of parameters without a default.
func (s *Schema[T]) Required() []string { return names(s.reg.Required()) }

// Optional returns names of parameters with a default.
func (s *Schema[T]) Optional() []string { return names(s.reg.Optional()) }

// Config returns the engine configuration the schema was built with.
func (s *Schema[T]) Config() Config { return s.cfg }

// NewBuilder returns a standalone builder over this schema's parameters and
// builder methods, for inspecting resolution outside of Construct.
func (s *Schema[T]) NewBuilder(opts Options) *Builder {
	return newBuilder(s.reg, opts, s.methods)
}

func names(ps []*Parameter) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.name)
	}
	return out
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
