package assembly

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

// Initializer declares parameters like Parameters.
//
// Deprecated: use Parameters. When Config.DeprecationNotices is set a warning
// naming the caller is logged once per call.
func (sb *SchemaBuilder[T]) Initializer(required []string, optional map[string]any) *SchemaBuilder[T] {
	if sb.cfg.DeprecationNotices {
		caller := "unknown"
		if _, file, line, ok := runtime.Caller(1); ok {
			caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
		sb.loggerOrDefault().Warn("assembly.deprecated",
			slog.String("method", "Initializer"),
			slog.String("replacement", "Parameters"),
			slog.String("caller", caller),
			slog.String("type", typeName[T]()),
		)
	}
	return sb.Parameters(required, optional)
}
