// Package handlers contains the HTTP handlers of the health route group.
//
// Endpoints (relative to the /health mount prefix):
//
//	GET /          liveness, never touches dependencies
//	GET /live      alias of /
//	GET /ready     readiness, 503 when a dependency check fails
//	GET /details   operator report, requires "Authorization: Bearer <token>"
//
// Notes:
//   - CORS is applied by the application, not here
//   - /ready and /details share one rate limiter; liveness is never limited
//   - All responses are JSON; errors are { "error": "..." }
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/handwerksprojekt/api/internal/middleware"
	"github.com/handwerksprojekt/api/internal/service/auth"
	"github.com/handwerksprojekt/api/internal/service/health"
)

// RegisterHealthRoutes builds the health route group. tokens may be nil,
// in which case /details is not registered. limiter may be nil.
func RegisterHealthRoutes(svc *health.Service, tokens *auth.TokenService, limiter *rate.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/", handleLive(svc))
	r.Get("/live", handleLive(svc))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		r.Get("/ready", withError(handleReady(svc)))
		if tokens != nil {
			r.With(requireOperator(tokens)).Get("/details", withError(handleDetails(svc)))
		}
	})
	return r
}

// withError wraps a handler so returned errors become a 500.
// Handlers must only return an error before the status line is written.
func withError(h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			log.Printf("⚠️ HTTP error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// === Handlers ===

// handleLive answers 200 {"status":"ok"} as long as the process serves HTTP.
func handleLive(svc *health.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = writeJSON(w, http.StatusOK, svc.Live())
	}
}

// handleReady runs the dependency checks.
// 200: every check passed. 503: at least one failed; the report says which.
func handleReady(svc *health.Service) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		report, err := svc.Ready(r.Context())
		switch {
		case err == nil:
			return writeJSON(w, http.StatusOK, report)
		case errors.Is(err, health.ErrNotReady):
			return writeJSON(w, http.StatusServiceUnavailable, report)
		default:
			return err
		}
	}
}

// handleDetails returns the operator report with the same status codes as /ready.
func handleDetails(svc *health.Service) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		details, err := svc.Details(r.Context())
		switch {
		case err == nil:
			return writeJSON(w, http.StatusOK, details)
		case errors.Is(err, health.ErrNotReady):
			return writeJSON(w, http.StatusServiceUnavailable, details)
		default:
			return err
		}
	}
}

func requireOperator(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Verify(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="health"`)
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					writeError(w, http.StatusUnauthorized, "authorization header required")
				default:
					writeError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}
			log.Printf("🔑 health details requested by %s (jti=%s)", claims.Subject, claims.ID)
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON marshals v before touching w, so a failed encode still leaves
// the response free for withError. Write failures are only logged.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(b, '\n')); err != nil {
		log.Printf("⚠️ write response: %v", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, code int, msg string) {
	_ = writeJSON(w, code, map[string]string{"error": msg})
}
