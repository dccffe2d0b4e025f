package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with the assembly data carried by the context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if ad, ok := ctx.Value(assemblyDataKey{}).(*AssemblyData); ok {
		r.AddAttrs(slog.Group("assembly",
			slog.String("id", ad.ID),
			slog.String("type", ad.Type),
		))
	}

	if pd, ok := ctx.Value(phaseDataKey{}).(*PhaseData); ok {
		r.AddAttrs(slog.Group("phase",
			slog.String("name", pd.Name),
			slog.Int("index", pd.Index),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

// Wrap returns a logger whose handler is decorated by Handler. Loggers that are
// already wrapped are returned unchanged.
func Wrap(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if _, ok := l.Handler().(Handler); ok {
		return l
	}
	return slog.New(Handler{Handler: l.Handler()})
}

type assemblyDataKey struct{}

type AssemblyData struct {
	ID   string
	Type string
}

func WithAssemblyData(ctx context.Context, data *AssemblyData) context.Context {
	return context.WithValue(ctx, assemblyDataKey{}, data)
}

func AssemblyDataFrom(ctx context.Context) (*AssemblyData, bool) {
	ad, ok := ctx.Value(assemblyDataKey{}).(*AssemblyData)
	return ad, ok
}

type phaseDataKey struct{}

type PhaseData struct {
	Name  string
	Index int
}

func WithPhaseData(ctx context.Context, data *PhaseData) context.Context {
	return context.WithValue(ctx, phaseDataKey{}, data)
}
