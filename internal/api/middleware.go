/*-------------------------------------------------------------------------
 *
 * middleware.go
 *    HTTP middleware for the lifecycle engine API
 *
 * API key authentication covers the admin surface only. Customer-facing
 * token links, the preview pages, and the inbound email webhook carry
 * their own opaque tokens and stay out of the auth path: a customer
 * clicking an email link must never see an auth challenge.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/middleware.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* Paths reachable without an API key */
func isPublicPath(path string) bool {
	if path == "/health" || path == "/metrics" {
		return true
	}
	if strings.HasPrefix(path, "/api/actions/") {
		return true
	}
	if strings.HasPrefix(path, "/preview/proposed/") {
		return true
	}
	if strings.HasPrefix(path, "/api/webhooks/") {
		return true
	}
	return false
}

/* AuthMiddleware validates the API key on admin routes */
func AuthMiddleware(apiKeys []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					key = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if !keyMatches(key, apiKeys) {
				metrics.WarnWithContext(r.Context(), "Unauthorized admin request", map[string]interface{}{
					"path":   r.URL.Path,
					"method": r.Method,
				})
				respondError(w, NewAPIError(http.StatusUnauthorized, "Invalid or missing API key", nil, GetRequestID(r.Context())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func keyMatches(key string, apiKeys []string) bool {
	if key == "" {
		return false
	}
	for _, valid := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}

/* statusRecorder captures the response status for request metrics */
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

/* LoggingMiddleware logs each request and records HTTP metrics */
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		endpoint := routeTemplate(r)
		metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(recorder.status), duration)
		metrics.InfoWithContext(r.Context(), "HTTP request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": duration.String(),
		})
	})
}

/* routeTemplate returns the mux route pattern so metric cardinality
 * stays bounded even though paths carry tokens. */
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

/* RecoveryMiddleware converts panics into 500 responses */
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.ErrorWithContext(r.Context(), "Panic in HTTP handler", nil, map[string]interface{}{
					"panic": rec,
					"path":  r.URL.Path,
				})
				respondError(w, NewAPIError(http.StatusInternalServerError, "Internal server error", nil, GetRequestID(r.Context())))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
