package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/okian/turnover/pkg/logger"
	"github.com/okian/turnover/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusUnauthorized    = 401
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

const (
	headerRequestID = "X-Request-ID"
	headerAPIKey    = "X-API-Key"
	maxRequestIDLen = 128
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFrom returns the request id set by RequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID reuses the caller's X-Request-ID or assigns a UUID, and echoes
// it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestLogger logs one line per request. The level follows the status.
func RequestLogger(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("request_id", RequestIDFrom(r.Context())),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote", r.RemoteAddr),
			}
			switch {
			case status >= statusInternalError:
				l.Error(r.Context(), "request", fields...)
			case status >= statusBadRequest:
				l.Warn(r.Context(), "request", fields...)
			default:
				l.Info(r.Context(), "request", fields...)
			}
		})
	}
}

// MetricsMiddleware records Prometheus metrics per route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		durationMs := float64(time.Since(start).Microseconds()) / 1000
		statusCodeStr := strconv.Itoa(status)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if status >= statusBadRequest {
			errorType := getErrorType(status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, getErrorSeverity(status))
		}
	})
}

// routePattern keeps label cardinality bounded: ids in paths collapse into
// their pattern and unknown paths share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusUnauthorized:
		return "unauthorized"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// CORS allows the given origins to call the API from a browser.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerAPIKey, headerRequestID},
		ExposedHeaders: []string{headerRequestID},
		MaxAge:         86400,
	})
}

// RateLimit allows requests per window for each API key, or per client IP
// when no key is sent.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return passThrough
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(keyByAPIKeyOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, NewKind("api.rate_limit", ErrTooManyRequests))
		}),
	)
}

func keyByAPIKeyOrIP(r *http.Request) (string, error) {
	if k := r.Header.Get(headerAPIKey); k != "" {
		return "api_key:" + k, nil
	}
	return httprate.KeyByIP(r)
}

// APIKeyAuth rejects requests without the configured X-API-Key. Debug mode
// lets everything through.
func APIKeyAuth(key string, debug bool) func(http.Handler) http.Handler {
	if debug {
		return passThrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "api.auth"
			got := r.Header.Get(headerAPIKey)
			switch {
			case got == "":
				w.Header().Set("WWW-Authenticate", "ApiKey")
				writeError(w, r, WrapKind(op, ErrUnauthorized, errMissingAPIKey))
				return
			case key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1:
				w.Header().Set("WWW-Authenticate", "ApiKey")
				writeError(w, r, WrapKind(op, ErrUnauthorized, errInvalidAPIKey))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func passThrough(next http.Handler) http.Handler { return next }
