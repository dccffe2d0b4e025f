// Package assemblytest provides helpers for testing code that declares
// assembly schemas: an event recorder for hooks, callbacks and coercions, a
// log capture, and construction helpers that fail the test on error.
package assemblytest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/ggoodman/assembly-go/assembly"
)

// Recorder collects named events in the order they happen. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func NewRecorder() *Recorder { return &Recorder{} }

// Record appends event.
func (r *Recorder) Record(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Hook returns a hook that records name and then runs next, if any.
func Hook[T any](r *Recorder, name string, next assembly.Hook[T]) assembly.Hook[T] {
	return func(inst *T, b *assembly.Builder) error {
		r.Record(name)
		if next != nil {
			return next(inst, b)
		}
		return nil
	}
}

// Callback returns a build callback that records name and then runs next,
// if any.
func Callback(r *Recorder, name string, next assembly.BuildFunc) assembly.BuildFunc {
	return func(b *assembly.Builder) error {
		r.Record(name)
		if next != nil {
			return next(b)
		}
		return nil
	}
}

// Coercion returns an identity coercion that records name each time it is
// applied.
func Coercion(r *Recorder, name string) assembly.Coercion {
	return assembly.Func(func(v any) (any, error) {
		r.Record(name)
		return v, nil
	})
}

// MustConstruct constructs an instance and fails the test on error.
func MustConstruct[T any](tb testing.TB, s *assembly.Schema[T], opts assembly.Options, fn assembly.BuildFunc) *T {
	tb.Helper()
	inst, err := s.Construct(opts, fn)
	if err != nil {
		tb.Fatalf("Construct(%v): %v", opts, err)
	}
	return inst
}

// MustFail constructs an instance, fails the test if that succeeds and
// returns the error otherwise.
func MustFail[T any](tb testing.TB, s *assembly.Schema[T], opts assembly.Options, fn assembly.BuildFunc) error {
	tb.Helper()
	inst, err := s.Construct(opts, fn)
	if err == nil {
		tb.Fatalf("Construct(%v) = %+v, want error", opts, inst)
	}
	return err
}

// LogBuffer captures JSON log records for assertions.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogger returns a debug-level logger writing to a new LogBuffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	lb := &LogBuffer{}
	return slog.New(slog.NewJSONHandler(lb, &slog.HandlerOptions{Level: slog.LevelDebug})), lb
}

func (lb *LogBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.Write(p)
}

// Records decodes every captured record.
func (lb *LogBuffer) Records() []map[string]any {
	lb.mu.Lock()
	data := append([]byte(nil), lb.buf.Bytes()...)
	lb.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// Messages returns the msg of every captured record in order.
func (lb *LogBuffer) Messages() []string {
	var out []string
	for _, rec := range lb.Records() {
		if msg, ok := rec["msg"].(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
