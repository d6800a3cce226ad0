package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/digital-hub/internal/domain/auth"
	"github.com/xenking/digital-hub/pkg/httpmiddleware"
)

const (
	// SessionHeader identifies the customer's cart slot.
	SessionHeader = "X-Session-ID"
	// APIKeyHeader carries the API key for order and staff routes.
	APIKeyHeader = "X-API-Key"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}

// requireSession rejects requests without a well-formed session header.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := r.Header.Get(SessionHeader)
		if !httpmiddleware.PrintableToken(s, 128) {
			writeError(w, http.StatusBadRequest, SessionHeader+" header is required")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, s)
		ctx = zctx.With(ctx, zap.String("session", s))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAPIKey authenticates the API key and checks it was granted scope.
func (h *Handler) requireAPIKey(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := h.keys.Verify(r.Context(), r.Header.Get(APIKeyHeader))
			if err != nil {
				h.fail(w, r, err)
				return
			}
			if !info.HasScope(scope) {
				h.fail(w, r, auth.ErrForbidden)
				return
			}
			ctx := zctx.With(r.Context(), zap.String("api_key", info.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
