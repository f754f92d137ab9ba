// Package svcctx provides service context for dependency injection via
// context. This package is separate from server to avoid import cycles with
// endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/ktanaka/promptdeck/internal/app"
	"github.com/ktanaka/promptdeck/internal/home"
)

// Services holds the core services that flow through context. Endpoints
// extract what they need via the individual extractors.
type Services struct {
	App    *app.State
	Home   *home.Dir
	Logger *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context. Returns nil if
// not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// AppFrom extracts the coordinator from context.
func AppFrom(ctx context.Context) *app.State {
	if s := ServicesFrom(ctx); s != nil {
		return s.App
	}
	return nil
}

// HomeFrom extracts the application directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
