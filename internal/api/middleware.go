package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type loggerKey struct{}

// NewRateLimiter allows requestsPerSecond with a burst of twice that. A
// non-positive rate disables limiting.
func NewRateLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), max(1, int(requestsPerSecond*2)))
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			fromContext(r.Context()).Debug("Rate limit exceeded")
			writeJSON(w, http.StatusTooManyRequests, ErrorInfo{Error: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests tags every request with an id, stores a logger for it in the
// request context and logs the outcome.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := log.WithFields(log.Fields{
			"request": uuid.NewString(),
			"method":  r.Method,
			"path":    r.URL.Path,
			"client":  r.RemoteAddr,
		})
		r = r.WithContext(context.WithValue(r.Context(), loggerKey{}, entry))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry.WithFields(log.Fields{
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}

// fromContext returns the request logger, or the standard logger outside a
// request.
func fromContext(ctx context.Context) *log.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*log.Entry); ok {
		return entry
	}
	return log.NewEntry(log.StandardLogger())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
