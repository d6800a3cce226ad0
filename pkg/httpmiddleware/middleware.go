// Package httpmiddleware contains net/http middleware shared by the hub's
// HTTP servers.
package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder returns the route template that served r, or "" if unknown.
// It is only meaningful once the router has handled the request.
type RouteFinder func(r *http.Request) string

// ChiRoutes finds routes registered on a chi router. Middlewares using it
// must run inside the router (chi.Router.Use).
func ChiRoutes() RouteFinder {
	return func(r *http.Request) string {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			return rctx.RoutePattern()
		}
		return ""
	}
}

// writeError writes the {"code","message"} error body used across the API.
func writeError(w http.ResponseWriter, code int, message string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
