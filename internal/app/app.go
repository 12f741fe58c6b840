// Package app builds the servable HTTP application: one chi mux with the
// CORS policy and any other middleware in front, and route groups mounted
// under fixed path prefixes.
//
// Boot order is fixed: New, then UseCORS/Use, then Mount. The resulting
// handler is immutable once the server starts serving it.
package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/handwerksprojekt/api/internal/cors"
)

// App is a configured, servable application.
type App struct {
	title  string
	mux    *chi.Mux
	groups map[string]string // prefix -> tag
}

// Route is a single registered method + path pair and the tag of its group.
type Route struct {
	Method string
	Path   string
	Tag    string
}

// New returns an application with no routes and no middleware.
func New(title string) *App {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return &App{
		title:  title,
		mux:    mux,
		groups: make(map[string]string),
	}
}

// Title returns the human-readable application title.
func (a *App) Title() string { return a.title }

// UseCORS validates p and installs it in front of every route.
func (a *App) UseCORS(p cors.Policy) error {
	mw, err := p.Middleware()
	if err != nil {
		return err
	}
	return a.Use(mw)
}

// Use appends middleware to the application chain. Middleware must be
// installed before the first Mount.
func (a *App) Use(mw ...func(http.Handler) http.Handler) error {
	if len(a.groups) > 0 {
		return ErrRoutesMounted
	}
	a.mux.Use(mw...)
	return nil
}

// Mount makes every route of routes reachable at prefix + route path.
// tag names the group in route listings.
func (a *App) Mount(prefix, tag string, routes http.Handler) error {
	if !strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	if routes == nil {
		return fmt.Errorf("%w: %q", ErrNilGroup, prefix)
	}
	if _, ok := a.groups[prefix]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicatePrefix, prefix)
	}
	a.mux.Mount(prefix, routes)
	a.groups[prefix] = tag
	return nil
}

// Routes lists every registered route, sorted by path then method.
func (a *App) Routes() ([]Route, error) {
	var out []Route
	err := chi.Walk(a.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, Route{Method: method, Path: route, Tag: a.tagFor(route)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk routes: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

// Handler returns the application as an http.Handler.
func (a *App) Handler() http.Handler { return a.mux }

func (a *App) tagFor(route string) string {
	best := ""
	for prefix := range a.groups {
		if (route == prefix || strings.HasPrefix(route, prefix+"/")) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return a.groups[best]
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
