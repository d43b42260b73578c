package observability

import (
	"io"
	"log/slog"

	"github.com/user-accounts/backend/internal/application/adapter"
)

// NewLogger builds the service logger: text for local development, JSON
// everywhere else.
func NewLogger(w io.Writer, level slog.Level, development bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renameLevels,
	}
	if development {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func renameLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == adapter.LevelSuccess {
		a.Value = slog.StringValue("SUCCESS")
	}
	return a
}
