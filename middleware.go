package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kb-query/kb-query-go/utils"
)

// loggingMiddleware logs HTTP requests and responses
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		s.logger.Info("HTTP request",
			utils.F("method", r.Method),
			utils.F("path", r.URL.Path),
			utils.F("remote_addr", r.RemoteAddr),
			utils.F("request_id", requestID))

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		s.logger.Info("HTTP response",
			utils.F("method", r.Method),
			utils.F("path", r.URL.Path),
			utils.F("status", rw.statusCode),
			utils.F("duration_ms", duration.Seconds()*1000),
			utils.F("request_id", requestID))
	})
}

// errorRecoveryMiddleware recovers from panics and logs errors
func (s *Server) errorRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic recovered",
					fmt.Errorf("panic: %v", err),
					utils.F("method", r.Method),
					utils.F("path", r.URL.Path))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// versionMiddleware adds the API version header to responses
func (s *Server) versionMiddleware(version string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", version)
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
