package tracelog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("category", event.Category.String()),
	}

	switch event.Category {
	case CategoryFrame:
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.Int("size", len(event.Data)),
			slog.String("data", event.HexData()),
		)
		if event.Attempt > 0 {
			attrs = append(attrs, slog.Int("resend", event.Attempt))
		}
	case CategoryState:
		attrs = append(attrs,
			slog.String("old_state", event.OldState),
			slog.String("new_state", event.NewState),
		)
		if event.Endpoint != "" {
			attrs = append(attrs, slog.String("endpoint", event.Endpoint))
		}
	case CategoryError:
		attrs = append(attrs, slog.String("error", event.Message))
		if len(event.Data) > 0 {
			attrs = append(attrs, slog.String("data", event.HexData()))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "link", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
