// Package server assembles the HTTP router: middleware chain, API routes,
// and the health endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	authhandler "relay-chat/backend/internal/auth/handler"
	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/server/middleware"
	userhandler "relay-chat/backend/internal/user/handler"
	"relay-chat/backend/internal/web"
)

// Pinger reports backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps holds the dependencies the router wires together. DB and Redis are
// optional; when nil the health endpoint skips that check.
type Deps struct {
	Codec *security.TokenCodec
	Auth  *authhandler.AuthHandler
	User  *userhandler.UserHandler
	DB    Pinger
	Redis Pinger
}

// NewRouter returns the HTTP handler serving the full API surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Authenticate(deps.Codec))

	r.Get("/healthz", healthHandler(deps.DB, deps.Redis))
	r.Route("/api/v1", func(api chi.Router) {
		deps.Auth.Register(api)
		deps.User.Register(api)
	})

	return otelhttp.NewHandler(r, "http.server")
}

func healthHandler(db, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				web.WriteError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unreachable")
				return
			}
		}
		if redis != nil {
			if err := redis.Ping(ctx); err != nil {
				web.WriteError(w, http.StatusServiceUnavailable, "REDIS_UNAVAILABLE", "redis unreachable")
				return
			}
		}
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
