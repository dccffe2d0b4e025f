package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ggoodman/assembly-go/assembly"
)

const serverHCL = `
parameter "host" {
  aliases     = ["hostname", "h"]
  description = "Host to bind"
}

parameter "port" {
  default = 8080
  coerce  = int
  alias   = "listen_port"
}

parameter "tags" {
  default = ["a", "b"]
  coerce  = list(string)
}

parameter "label" {
  default = null
  coerce  = "stringify"
}
`

func TestParseHCL(t *testing.T) {
	m, err := ParseHCL([]byte(serverHCL), "server.hcl")
	if err != nil {
		t.Fatalf("ParseHCL: %v", err)
	}
	if m.Format != FormatHCL || m.Path != "server.hcl" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if got := m.Names(); !reflect.DeepEqual(got, []string{"host", "port", "tags", "label"}) {
		t.Fatalf("names = %v", got)
	}

	decls := m.Declarations()
	host := decls[0]
	if host.HasDefault || !reflect.DeepEqual(host.Aliases, []string{"hostname", "h"}) || host.Description != "Host to bind" {
		t.Fatalf("host = %+v", host)
	}
	port := decls[1]
	if !port.HasDefault || port.Default != int64(8080) || port.Coerce.String() != "int" {
		t.Fatalf("port = %+v", port)
	}
	if !reflect.DeepEqual(port.Aliases, []string{"listen_port"}) {
		t.Fatalf("port aliases = %v", port.Aliases)
	}
	tags := decls[2]
	if tags.Coerce.String() != "list(string)" || !reflect.DeepEqual(tags.Default, []any{"a", "b"}) {
		t.Fatalf("tags = %+v", tags)
	}
	label := decls[3]
	if !label.HasDefault || label.Default != nil || label.Coerce.String() != "stringify" {
		t.Fatalf("label = %+v", label)
	}
}

func TestParseHCL_Errors(t *testing.T) {
	cases := map[string]string{
		"syntax":      `parameter "x" {`,
		"unknown arg": `parameter "x" { required = true }`,
		"bad alias":   `parameter "x" { aliases = [1, 2] }`,
		"bad coerce":  `parameter "x" { coerce = 1 + 2 }`,
		"no label":    `parameter { }`,
	}
	for name, src := range cases {
		if _, err := ParseHCL([]byte(src), "bad.hcl"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

const serverYAML = `
parameters:
  - name: host
    aliases: [hostname]
  - name: port
    default: 8080
    coerce: int
  - name: label
    default: null
  - name: port
    default: 9090
`

func TestParseYAML(t *testing.T) {
	m, err := ParseYAML([]byte(serverYAML), "server.yaml")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if got := m.Names(); !reflect.DeepEqual(got, []string{"host", "port", "label"}) {
		t.Fatalf("names = %v", got)
	}
	decls := m.Declarations()
	if len(decls) != 4 {
		t.Fatalf("expected duplicates to be kept, got %d declarations", len(decls))
	}
	if !decls[2].HasDefault || decls[2].Default != nil {
		t.Fatalf("label = %+v", decls[2])
	}
}

func TestParseYAML_Errors(t *testing.T) {
	cases := map[string]string{
		"no name":     "parameters:\n  - default: 1\n",
		"unknown key": "parameters:\n  - name: x\n    requird: true\n",
		"syntax":      "parameters: [",
	}
	for name, src := range cases {
		if _, err := ParseYAML([]byte(src), "bad.yaml"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApply_BuildsSchema(t *testing.T) {
	type server struct {
		Host  string
		Port  int
		Tags  []string
		Label any
	}
	m, err := ParseHCL([]byte(serverHCL), "server.hcl")
	if err != nil {
		t.Fatalf("ParseHCL: %v", err)
	}
	s, err := Apply(assembly.NewSchema[server](), m).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	srv, err := s.Construct(assembly.Options{"h": "localhost", "listen_port": "9000"}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if srv.Host != "localhost" || srv.Port != 9000 || !reflect.DeepEqual(srv.Tags, []string{"a", "b"}) || srv.Label != nil {
		t.Fatalf("unexpected %+v", srv)
	}

	if _, err := s.Construct(nil, nil); !errors.Is(err, assembly.ErrMissingParameters) {
		t.Fatalf("expected missing host, got %v", err)
	}
}

func TestApply_YAMLRedeclarationWins(t *testing.T) {
	m, err := ParseYAML([]byte(serverYAML), "server.yaml")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	s := Apply(assembly.NewSchema[assembly.Values](), m).MustBuild()
	v, err := s.Construct(assembly.Options{"hostname": "h"}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if port, _ := v.Get("port"); port != 9090 {
		t.Fatalf("port = %v", port)
	}
	if got := v.Names(); !reflect.DeepEqual(got, []string{"host", "port", "label"}) {
		t.Fatalf("names = %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	hclPath := filepath.Join(dir, "server.hcl")
	ymlPath := filepath.Join(dir, "server.yml")
	if err := os.WriteFile(hclPath, []byte(serverHCL), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ymlPath, []byte(serverYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadFile(hclPath)
	if err != nil || m.Format != FormatHCL {
		t.Fatalf("hcl: %+v, %v", m, err)
	}
	m, err = LoadFile(ymlPath)
	if err != nil || m.Format != FormatYAML {
		t.Fatalf("yaml: %+v, %v", m, err)
	}
	if _, err := LoadFile(filepath.Join(dir, "server.json")); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.hcl")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	if err := os.WriteFile(path, []byte("parameters:\n  - name: a\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(m *Manifest, err error) {
			if err != nil {
				return
			}
			updates <- m.Names()
		})
	}()

	waitFor := func(want []string) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case got := <-updates:
				if reflect.DeepEqual(got, want) {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %v", want)
			}
		}
	}

	waitFor([]string{"a"})
	if err := os.WriteFile(path, []byte("parameters:\n  - name: a\n  - name: b\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor([]string{"a", "b"})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not return after cancel")
	}
}
