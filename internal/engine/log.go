// Package engine holds the ambient wiring shared by every matching-core
// component: the structured logger and the prometheus collectors.
package engine

import "go.uber.org/zap"

// NewLogger builds the package-level logger used by engine components.
// Production callers get a JSON encoder; tests use zaptest instead.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Noop returns a logger that discards everything, used as a safe default
// for components constructed without an explicit logger.
func Noop() *zap.Logger {
	return zap.NewNop()
}
