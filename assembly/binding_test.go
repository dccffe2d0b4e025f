package assembly

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type server struct {
	Host        string
	Port        int64
	MaxConns    *int
	DisplayName string `assembly:"label"`
	Tags        []string
	Labels      map[string]string
	internal    string
	Skipped     string `assembly:"-"`
}

func serverSchema(t *testing.T) *Schema[server] {
	t.Helper()
	s, err := NewSchema[server]().
		Parameters([]string{"host"}, map[string]any{
			"port":      8080,
			"max_conns": 10,
			"label":     "primary",
			"tags":      []any{"a", "b"},
			"labels":    map[string]any{"env": "prod"},
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestBinding_StructFields(t *testing.T) {
	srv, err := serverSchema(t).Construct(Options{"host": "localhost"}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if srv.Host != "localhost" || srv.Port != 8080 || srv.DisplayName != "primary" {
		t.Fatalf("unexpected %+v", srv)
	}
	if srv.MaxConns == nil || *srv.MaxConns != 10 {
		t.Fatalf("max conns = %v", srv.MaxConns)
	}
	if len(srv.Tags) != 2 || srv.Tags[1] != "b" {
		t.Fatalf("tags = %v", srv.Tags)
	}
	if srv.Labels["env"] != "prod" {
		t.Fatalf("labels = %v", srv.Labels)
	}
}

func TestBinding_AssignmentError(t *testing.T) {
	_, err := serverSchema(t).Construct(Options{"host": "localhost", "port": "eighty"}, nil)
	var ae *AssignmentError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AssignmentError, got %v", err)
	}
	if ae.Parameter != "port" || ae.Field != "Port" {
		t.Fatalf("unexpected %+v", ae)
	}
}

func TestBinding_NilYieldsZero(t *testing.T) {
	srv, err := serverSchema(t).Construct(Options{"host": nil}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if srv.Host != "" {
		t.Fatalf("host = %q", srv.Host)
	}
}

func TestBinding_UnboundParameterFailsBuild(t *testing.T) {
	_, err := NewSchema[server]().Parameters([]string{"host", "internal", "skipped", "nope"}, nil).Build()
	if err == nil {
		t.Fatalf("expected Build error")
	}
	for _, name := range []string{"internal", "skipped", "nope"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not mention %s", err, name)
		}
	}
}

func TestBinding_NonStruct(t *testing.T) {
	if _, err := NewSchema[int]().Parameter("x").Build(); err == nil {
		t.Fatalf("expected Build error for non-struct type with parameters")
	}
	s, err := NewSchema[int]().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := s.Construct(nil, nil)
	if err != nil || v == nil || *v != 0 {
		t.Fatalf("got %v, %v", v, err)
	}
}

type recorder struct {
	got map[string]any
}

func (r *recorder) AssignParameter(name string, v any) error {
	if name == "reject" {
		return errors.New("rejected")
	}
	if r.got == nil {
		r.got = map[string]any{}
	}
	r.got[name] = v
	return nil
}

func TestBinding_Receiver(t *testing.T) {
	s := NewSchema[recorder]().Parameters([]string{"a"}, map[string]any{"b": 2}).MustBuild()
	r, err := s.Construct(Options{"a": 1}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if r.got["a"] != 1 || r.got["b"] != 2 {
		t.Fatalf("got %v", r.got)
	}

	s = NewSchema[recorder]().Parameter("reject").MustBuild()
	if _, err := s.Construct(Options{"reject": 1}, nil); err == nil {
		t.Fatalf("expected receiver error")
	}
}

func TestValues_Order(t *testing.T) {
	s := NewSchema[Values]().Parameters([]string{"z", "a"}, map[string]any{"m": 1}).MustBuild()
	v, err := s.Construct(Options{"z": 1, "a": 2}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	names := v.Names()
	if len(names) != 3 || names[0] != "z" || names[1] != "a" || names[2] != "m" {
		t.Fatalf("names = %v", names)
	}
	if !v.Has("m") || v.Has("x") {
		t.Fatalf("Has mismatch")
	}
}

type limits struct {
	Port  int8
	Count int
	Size  uint16
	Ratio float32
}

func limitsSchema() *Schema[limits] {
	return NewSchema[limits]().Parameters(nil, map[string]any{
		"port":  0,
		"count": 0,
		"size":  0,
		"ratio": 0.0,
	}).MustBuild()
}

func TestBinding_NumericOverflow(t *testing.T) {
	s := limitsSchema()
	cases := []struct {
		opts  Options
		param string
		field string
	}{
		{Options{"port": 300}, "port", "Port"},
		{Options{"port": -129}, "port", "Port"},
		{Options{"port": uint64(1 << 63)}, "port", "Port"},
		{Options{"size": -1}, "size", "Size"},
		{Options{"size": 70000}, "size", "Size"},
		{Options{"ratio": 1e300}, "ratio", "Ratio"},
	}
	for _, tc := range cases {
		l, err := s.Construct(tc.opts, nil)
		var ae *AssignmentError
		if !errors.As(err, &ae) {
			t.Fatalf("%v: expected AssignmentError, got %+v, %v", tc.opts, l, err)
		}
		if ae.Parameter != tc.param || ae.Field != tc.field {
			t.Fatalf("%v: unexpected %+v", tc.opts, ae)
		}
		if !strings.Contains(ae.Reason, "overflows") {
			t.Fatalf("%v: reason = %q", tc.opts, ae.Reason)
		}
	}

	l, err := s.Construct(Options{"port": int64(-128), "size": uint8(255), "ratio": 0.5, "count": uint32(7)}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if l.Port != -128 || l.Size != 255 || l.Ratio != 0.5 || l.Count != 7 {
		t.Fatalf("unexpected %+v", l)
	}
}

func TestBinding_FractionalToInt(t *testing.T) {
	s := limitsSchema()
	for _, opts := range []Options{
		{"count": 1.9},
		{"size": float32(0.5)},
		{"count": math.NaN()},
		{"count": math.Inf(1)},
	} {
		_, err := s.Construct(opts, nil)
		var ae *AssignmentError
		if !errors.As(err, &ae) {
			t.Fatalf("%v: expected AssignmentError, got %v", opts, err)
		}
		if !strings.Contains(ae.Reason, "not a whole number") {
			t.Fatalf("%v: reason = %q", opts, ae.Reason)
		}
	}

	l, err := s.Construct(Options{"count": 2.0, "port": float64(-3), "size": float32(12)}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if l.Count != 2 || l.Port != -3 || l.Size != 12 {
		t.Fatalf("unexpected %+v", l)
	}
}
