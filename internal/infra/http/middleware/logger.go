package middleware

import (
	"net/http"
	"time"

	"cwbridge/platform/logger"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// HTTPLogger logs one line per request with method, path, status and
// duration.
func HTTPLogger(log *logger.Logger) func(http.Handler) http.Handler {
	httpLog := log.WithModule("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			httpLog.InfoWithFields("request completed", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rw.status,
				"bytes":      rw.bytes,
				"duration":   time.Since(start).String(),
				"request_id": GetRequestID(r.Context()),
			})
		})
	}
}
