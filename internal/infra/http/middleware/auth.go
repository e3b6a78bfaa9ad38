package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"cwbridge/platform/config"
	"cwbridge/platform/logger"
)

// APIKeyAuth guards everything except the webhook endpoint and the
// health check. The webhook must stay open: the chat service cannot
// attach credentials to macro sub-action posts.
func APIKeyAuth(cfg *config.Config, log *logger.Logger) func(http.Handler) http.Handler {
	authLog := log.WithModule("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/sync" || strings.HasPrefix(path, "/health") {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("Authorization")
			apiKey = strings.TrimPrefix(apiKey, "Bearer ")
			if apiKey == "" {
				apiKey = r.Header.Get("X-API-Key")
			}

			if apiKey == "" || apiKey != cfg.APIKey {
				authLog.WarnWithFields("rejected request", map[string]interface{}{
					"path":    path,
					"method":  r.Method,
					"api_key": maskAPIKey(apiKey),
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":   "Unauthorized",
					"message": "API key is required. Provide it via Authorization header or X-API-Key header",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 12 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:8] + strings.Repeat("*", len(apiKey)-12) + apiKey[len(apiKey)-4:]
}
