package httpapi

import (
	"expvar"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	requestsTotal    = expvar.NewInt("requests_total")
	requestsErrors   = expvar.NewInt("requests_errors_total")
	loginFailures    = expvar.NewInt("login_failures_total")
	requestsByRoute  = expvar.NewMap("requests_by_route")
	unauthorizedHits = expvar.NewMap("requests_unauthorized_by_route")
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware assigns a request id when the client sent none,
// echoes it back and logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := requestIDFromRequest(r)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)

		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		duration := time.Since(start)

		route := routeGroup(r.URL.Path)
		requestsTotal.Add(1)
		requestsByRoute.Add(route, 1)
		if writer.status >= http.StatusBadRequest {
			requestsErrors.Add(1)
		}
		if writer.status == http.StatusUnauthorized {
			unauthorizedHits.Add(route, 1)
			if route == "token" {
				loginFailures.Add(1)
			}
		}
		log.Printf("request method=%s path=%s route=%s status=%d duration_ms=%d client=%s request_id=%s",
			r.Method, r.URL.Path, route, writer.status, duration.Milliseconds(), clientIP(r), requestID)
	})
}

// routeGroup names the endpoint family of path for the counters.
func routeGroup(path string) string {
	switch {
	case path == pathToken:
		return "token"
	case path == pathTokenRefresh:
		return "token_refresh"
	case strings.HasPrefix(path, "/api/me"):
		return "me"
	case strings.HasSuffix(path, "/verificar-qr/"):
		return "qr_verify"
	case strings.HasPrefix(path, "/accesos/api/visitas/"):
		return "visits"
	case strings.HasPrefix(path, "/api/entries"):
		return "entries"
	case strings.HasPrefix(path, "/api/areas"):
		return "areas"
	case strings.HasPrefix(path, "/api/expenses"), strings.HasPrefix(path, "/api/payments"):
		return "payments"
	case strings.HasPrefix(path, "/api/alertas"):
		return "alerts"
	case path == "/healthz":
		return "health"
	default:
		return "other"
	}
}
