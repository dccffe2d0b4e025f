package assembly

import (
	"context"
	"log/slog"
	"time"

	"github.com/ggoodman/assembly-go/internal/logctx"
	"github.com/google/uuid"
)

// Construct builds a new *T from opts and the optional callback fn.
func (s *Schema[T]) Construct(opts Options, fn BuildFunc) (*T, error) {
	return s.ConstructContext(context.Background(), opts, fn)
}

// ConstructContext is Construct with a context used to correlate log records.
// The pipeline is fixed:
//
//  1. before hooks, in declaration order
//  2. defaults are seeded into the builder, except for slots a before hook
//     already set; those keep the hook's value
//  3. the options map is applied; a parameter's canonical name beats its aliases
//  4. fn runs and may override anything set so far
//  5. every parameter without a value is reported in one MissingParametersError
//  6. values are committed to the instance
//  7. after hooks, in declaration order, against a sealed builder
//
// Log records emitted while a stage runs carry its Phase name. Any failure
// discards the instance.
func (s *Schema[T]) ConstructContext(ctx context.Context, opts Options, fn BuildFunc) (*T, error) {
	ctx = logctx.WithAssemblyData(ctx, &logctx.AssemblyData{
		ID:   uuid.NewString(),
		Type: s.typeName,
	})
	start := time.Now()

	inst, err := s.construct(ctx, opts, fn)
	if err != nil {
		s.logger.DebugContext(ctx, "assembly.construct.fail",
			slog.Duration("duration", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	s.logger.DebugContext(ctx, "assembly.construct.ok",
		slog.Duration("duration", time.Since(start)),
		slog.Int("parameters", s.reg.Len()),
	)
	return inst, nil
}

func (s *Schema[T]) construct(ctx context.Context, opts Options, fn BuildFunc) (*T, error) {
	inst := new(T)
	b := newBuilder(s.reg, opts, s.methods)

	b.stage = SourceHook
	if err := s.runHooks(ctx, PhaseBefore, s.before, inst, b); err != nil {
		return nil, err
	}

	b.stage = SourceDefault
	s.enterPhase(ctx, PhaseDefaults)
	for _, p := range s.reg.Parameters() {
		if !p.hasDefault || b.isSet(p.name) {
			continue
		}
		def, _ := p.Default()
		if err := b.assign(p, def); err != nil {
			return nil, err
		}
	}

	b.stage = SourceOptions
	octx := s.enterPhase(ctx, PhaseOptions)
	for _, p := range s.reg.Parameters() {
		raw, key, ok := p.lookup(opts)
		if !ok {
			continue
		}
		if err := b.assign(p, raw); err != nil {
			return nil, err
		}
		if key != p.name {
			s.logger.DebugContext(octx, "assembly.option.alias",
				slog.String("parameter", p.name),
				slog.String("key", key),
			)
		}
	}

	if fn != nil {
		b.stage = SourceCallback
		s.enterPhase(ctx, PhaseCallback)
		if err := fn(b); err != nil {
			return nil, err
		}
		if err := b.Err(); err != nil {
			return nil, err
		}
	}

	s.enterPhase(ctx, PhaseValidate)
	var missing []string
	for _, p := range s.reg.Parameters() {
		if !b.isSet(p.name) && !p.hasDefault {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingParametersError{Names: missing}
	}

	s.enterPhase(ctx, PhaseCommit)
	for _, p := range s.reg.Parameters() {
		if err := s.bind(inst, p.name, b.slots[p.name]); err != nil {
			return nil, err
		}
	}
	b.sealed = true

	if err := s.runHooks(ctx, PhaseAfter, s.after, inst, b); err != nil {
		return nil, err
	}
	return inst, nil
}

// enterPhase tags ctx with phase and records the transition.
func (s *Schema[T]) enterPhase(ctx context.Context, phase Phase) context.Context {
	ctx = logctx.WithPhaseData(ctx, &logctx.PhaseData{Name: string(phase)})
	s.logger.DebugContext(ctx, "assembly.phase")
	return ctx
}

func (s *Schema[T]) runHooks(ctx context.Context, phase Phase, hooks []Hook[T], inst *T, b *Builder) error {
	for i, h := range hooks {
		hctx := logctx.WithPhaseData(ctx, &logctx.PhaseData{Name: string(phase), Index: i})
		s.logger.DebugContext(hctx, "assembly.hook")
		if err := h(inst, b); err != nil {
			return &HookError{Phase: phase, Index: i, Err: err}
		}
		if err := b.Err(); err != nil {
			return &HookError{Phase: phase, Index: i, Err: err}
		}
	}
	return nil
}
