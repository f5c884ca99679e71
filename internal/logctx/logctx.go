// Package logctx provides the runtime's package-level structured logger.
//
// Grounded on the teacher's logging.go, which exposes a package-level,
// swappable Logger (SetStructuredLogger / getGlobalLogger guarded by an
// RWMutex). This module uses the monorepo's own structured-logging library,
// logiface, wired to a log/slog handler through the logiface-slog adapter,
// instead of the teacher's bespoke Logger interface — the teacher's
// go.mod already names logiface as its logging dependency.
package logctx

import (
	"log/slog"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

var (
	mu      sync.RWMutex
	current *logiface.Logger[*islog.Event]
)

func init() {
	current = newDefault()
}

func newDefault() *logiface.Logger[*islog.Event] {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return logiface.New[*islog.Event](islog.NewLogger(handler))
}

// SetLogger replaces the package-level logger used by every executor, the
// timer queue, and the runtime façade. Passing nil restores the default
// (stderr, text, info level) logger.
func SetLogger(l *logiface.Logger[*islog.Event]) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		current = newDefault()
		return
	}
	current = l
}

// Get returns the current package-level logger.
func Get() *logiface.Logger[*islog.Event] {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Named returns a child logger carrying a "component" field, used by each
// executor/timer-queue instance to tag its log lines, e.g. Named("pool:cpu").
func Named(component string) *logiface.Logger[*islog.Event] {
	l := Get()
	ctx := l.Clone().Str("component", component)
	return ctx.Logger()
}
