package httpmiddleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InjectLogger stores lg in the request context, tagged with the request ID
// when RequestID runs first.
func InjectLogger(lg *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := lg
			if id := RequestIDFromContext(r.Context()); id != "" {
				l = l.With(zap.String("request_id", id))
			}
			next.ServeHTTP(w, r.WithContext(zctx.Base(r.Context(), l)))
		})
	}
}

// LogRequests writes one access log line per request. Server errors are
// logged at Warn, everything else at Debug.
func LogRequests(find RouteFinder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			level := zapcore.DebugLevel
			if m.Code >= http.StatusInternalServerError {
				level = zapcore.WarnLevel
			}
			lg := zctx.From(r.Context())
			if ce := lg.Check(level, "Request"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("route", find(r)),
					zap.String("path", r.URL.Path),
					zap.Int("status", m.Code),
					zap.Int64("bytes", m.Written),
					zap.Duration("duration", m.Duration),
				)
			}
		})
	}
}
