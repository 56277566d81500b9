package web_server

import (
	"bufio"
	"context"
	"fmt"
	"github.com/lefinal/vrcafe-server/identity"
	"go.uber.org/zap"
	"net"
	"net/http"
	"time"
)

// LoggingResponseWriter is a minimal wrapper for http.ResponseWriter that
// allows the written HTTP status code to be captured for logging.
type LoggingResponseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader wraps the WriteHeader method from http.ResponseWriter in order to
// record the written status.
func (rw *LoggingResponseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack allows upgrading websocket connections through the wrapper.
func (rw *LoggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer of type %T does not support hijacking", rw.ResponseWriter)
	}
	rw.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// loggingMiddleware logs the incoming HTTP request, status, method, path and
// duration.
func loggingMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrappedWriter := &LoggingResponseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}
			next.ServeHTTP(wrappedWriter, r)
			logger.Debug(r.URL.String(),
				zap.Int("status", wrappedWriter.status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.EscapedPath()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// noCacheMiddleware forbids caching.
func noCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Avoid caching.
		w.Header().Set("Cache-Control", "max-age=0, no-cache, must-revalidate, proxy-revalidate")
		next.ServeHTTP(w, r)
	})
}

// identityContextKey is the context key for the identity.Identity of
// authenticated requests.
type identityContextKey struct{}

// requestIdentity returns the identity.Identity that was set by authMiddleware.
func requestIdentity(r *http.Request) (identity.Identity, bool) {
	ident, ok := r.Context().Value(identityContextKey{}).(identity.Identity)
	return ident, ok
}

// authMiddleware verifies the bearer token of the request and adds the
// identity.Identity to the request context. If allowQuery is set, the token may
// also be passed as query parameter as browsers cannot set headers for
// websocket connections.
func (server *WebServer) authMiddleware(allowQuery bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := server.verifier.Verify(identity.TokenFromRequest(r, allowQuery))
			if err != nil {
				server.respondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityContextKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
