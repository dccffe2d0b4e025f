package assembly

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRegistry_DeclarationOrderAndViews(t *testing.T) {
	r := NewRegistry()
	if err := r.DeclareMany([]string{"b", "a"}, map[string]any{"z": 1, "c": 2}); err != nil {
		t.Fatalf("DeclareMany: %v", err)
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"b", "a", "c", "z"}) {
		t.Fatalf("names = %v", got)
	}
	if got := names(r.Required()); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("required = %v", got)
	}
	if got := names(r.Optional()); !reflect.DeepEqual(got, []string{"c", "z"}) {
		t.Fatalf("optional = %v", got)
	}
}

func TestRegistry_RedeclareKeepsPosition(t *testing.T) {
	r := NewRegistry()
	_ = r.Declare(Declaration{Name: "a", Aliases: []string{"x"}})
	_ = r.Declare(Declaration{Name: "b"})
	_ = r.Declare(Declaration{Name: "a", HasDefault: true, Default: 1})

	if got := r.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("names = %v", got)
	}
	p, _ := r.Get("a")
	if !p.HasDefault() || len(p.Aliases()) != 0 {
		t.Fatalf("redeclaration merged fields: %+v", p)
	}
	if _, ok := r.Lookup("x"); ok {
		t.Fatalf("stale alias still indexed")
	}
}

func TestRegistry_LookupCanonicalShadowsAlias(t *testing.T) {
	r := NewRegistry()
	_ = r.Declare(Declaration{Name: "a", Aliases: []string{"b"}})
	_ = r.Declare(Declaration{Name: "b"})

	p, ok := r.Lookup("b")
	if !ok || p.Name() != "b" {
		t.Fatalf("lookup b = %v", p)
	}
	if errs := r.conflicts(); len(errs) != 1 {
		t.Fatalf("expected one conflict, got %v", errs)
	}
}

func TestRegistry_AliasClaimedTwice(t *testing.T) {
	r := NewRegistry()
	_ = r.Declare(Declaration{Name: "a", Aliases: []string{"shared"}})
	_ = r.Declare(Declaration{Name: "b", Aliases: []string{"shared"}})

	p, _ := r.Lookup("shared")
	if p.Name() != "a" {
		t.Fatalf("first declaration should own the alias, got %s", p.Name())
	}
	errs := r.conflicts()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "already an alias of a") {
		t.Fatalf("conflicts = %v", errs)
	}
}

func TestRegistry_InvalidDeclarations(t *testing.T) {
	r := NewRegistry()
	var de *DeclarationError
	if err := r.Declare(Declaration{Name: " "}); !errors.As(err, &de) {
		t.Fatalf("expected DeclarationError for empty name, got %v", err)
	}
	if err := r.Declare(Declaration{Name: "a", Aliases: []string{""}}); !errors.As(err, &de) {
		t.Fatalf("expected DeclarationError for empty alias, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("invalid declarations were stored")
	}
}

func TestDeclarationFromMap(t *testing.T) {
	d, err := DeclarationFromMap("port", map[string]any{
		"default":     8080,
		"coerce":      "int",
		"alias":       "p",
		"aliases":     []any{"listen_port"},
		"description": "TCP port",
	})
	if err != nil {
		t.Fatalf("DeclarationFromMap: %v", err)
	}
	if !d.HasDefault || d.Default != 8080 {
		t.Fatalf("default = %v", d.Default)
	}
	if d.Coerce.String() != "int" {
		t.Fatalf("coerce = %v", d.Coerce)
	}
	if !reflect.DeepEqual(d.Aliases, []string{"p", "listen_port"}) {
		t.Fatalf("aliases = %v", d.Aliases)
	}
	if d.Description != "TCP port" {
		t.Fatalf("description = %q", d.Description)
	}

	if _, err := DeclarationFromMap("port", map[string]any{"defualt": 1}); err == nil {
		t.Fatalf("expected error for unrecognised option")
	}
	if _, err := DeclarationFromMap("port", map[string]any{"alias": 3}); err == nil {
		t.Fatalf("expected error for non-string alias")
	}
}

func TestDeclarationFromMap_NilDefaultIsDefault(t *testing.T) {
	d, err := DeclarationFromMap("x", map[string]any{"default": nil})
	if err != nil {
		t.Fatalf("DeclarationFromMap: %v", err)
	}
	if !d.HasDefault {
		t.Fatalf("nil default should still count as a default")
	}
}

func TestParameter_Resolve(t *testing.T) {
	p := NewParameter("foo", Alias("f"), CoerceNamed("stringify"))

	v, ok, err := p.Resolve(Options{"f": 3}, nil)
	if err != nil || !ok || v != "3" {
		t.Fatalf("alias resolve = %v, %v, %v", v, ok, err)
	}

	missed := false
	v, ok, err = p.Resolve(Options{"other": 1}, func() { missed = true })
	if err != nil || ok || v != nil || !missed {
		t.Fatalf("missing resolve = %v, %v, %v, missed=%v", v, ok, err, missed)
	}

	withDefault := NewParameter("foo", Default(7), CoerceNamed("stringify"))
	v, ok, err = withDefault.Resolve(nil, func() { t.Fatalf("onMissing called for defaulted parameter") })
	if err != nil || !ok || v != "7" {
		t.Fatalf("default resolve = %v, %v, %v", v, ok, err)
	}
}

func TestParameter_DefaultIsCopied(t *testing.T) {
	p := NewParameter("tags", Default([]string{"a"}))
	d, _ := p.Default()
	d.([]string)[0] = "changed"
	again, _ := p.Default()
	if again.([]string)[0] != "a" {
		t.Fatalf("default shared between callers")
	}
}

func TestParameter_DefaultIsDeepCopied(t *testing.T) {
	p := NewParameter("nested", Default(map[string]any{
		"list": []any{"a", []string{"b"}},
		"map":  map[string]int{"n": 1},
	}))
	d, _ := p.Default()
	m := d.(map[string]any)
	m["list"].([]any)[1].([]string)[0] = "changed"
	m["map"].(map[string]int)["n"] = 2
	m["extra"] = true

	again, _ := p.Default()
	want := map[string]any{
		"list": []any{"a", []string{"b"}},
		"map":  map[string]int{"n": 1},
	}
	if !reflect.DeepEqual(again, want) {
		t.Fatalf("default mutated through a copy: %#v", again)
	}
}

func TestParameter_DefaultScalarsAndNil(t *testing.T) {
	if d, ok := NewParameter("n", Default(nil)).Default(); !ok || d != nil {
		t.Fatalf("nil default = %v, %v", d, ok)
	}
	if d, _ := NewParameter("n", Default(42)).Default(); d != 42 {
		t.Fatalf("scalar default = %v", d)
	}
	var none []string
	d, _ := NewParameter("n", Default(none)).Default()
	if got := d.([]string); got != nil {
		t.Fatalf("nil slice default should stay nil, got %#v", got)
	}
}

func TestOptionsOf(t *testing.T) {
	type key string
	opts := OptionsOf(map[key]int{"a": 1})
	if opts["a"] != 1 {
		t.Fatalf("opts = %v", opts)
	}
	if OptionsOf[key, int](nil) != nil {
		t.Fatalf("nil map should stay nil")
	}
	with := opts.With("b", 2)
	if _, ok := opts["b"]; ok || with["b"] != 2 || with["a"] != 1 {
		t.Fatalf("With mutated receiver or lost keys: %v %v", opts, with)
	}
}
