package client

import (
	"log/slog"

	"github.com/darwkzm/sopo/models"
)

// Notifier receives the transient, user-visible notifications the session
// emits: exactly one per mutation outcome. The browser shell renders these
// as auto-dismissing toasts; headless callers can log or collect them.
type Notifier interface {
	Success(message string)
	Info(message string)
	Error(message string)
}

// Renderer redraws the UI from the mirror. It is called after the initial
// load, after every optimistic apply, and again after a rollback.
type Renderer interface {
	Render(doc *models.Document)
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that writes notifications to a logger,
// for headless use of the session.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Success(message string) { n.logger.Info(message, slog.String("kind", "success")) }
func (n *logNotifier) Info(message string)    { n.logger.Info(message, slog.String("kind", "info")) }
func (n *logNotifier) Error(message string)   { n.logger.Error(message, slog.String("kind", "error")) }

// NopRenderer satisfies Renderer for callers without a UI.
type NopRenderer struct{}

func (NopRenderer) Render(doc *models.Document) {}
