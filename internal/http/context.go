package http

import (
	"context"

	"github.com/example/meetassist/internal/logging"
)

type contextKey string

const identifierContextKey contextKey = "identifier"

// ContextWithLogger and LoggerFromContext re-export the shared helpers so
// handlers and middleware in this package stay terse.
var (
	ContextWithLogger = logging.ContextWithLogger
	LoggerFromContext = logging.FromContext
)

// ContextWithIdentifier returns a derived context carrying the
// authenticated account identifier.
func ContextWithIdentifier(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, identifierContextKey, identifier)
}

// IdentifierFromContext extracts the authenticated identifier if present.
func IdentifierFromContext(ctx context.Context) (string, bool) {
	identifier, ok := ctx.Value(identifierContextKey).(string)
	return identifier, ok
}
