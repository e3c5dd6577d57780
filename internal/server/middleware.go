package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finscholars/finscholars/internal/auth"
	"github.com/finscholars/finscholars/internal/backend"
)

type ctxKey int

const userKey ctxKey = iota

// UserFrom returns the authenticated user id stored by the auth middleware.
func UserFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

// requireAuth rejects requests without a valid bearer token. The token is
// forwarded to the back-end client through the request context.
func requireAuth(issuer *auth.Issuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				ReturnHTTPMessage(w, r, http.StatusUnauthorized, TypeError, auth.ErrMissingToken.Error())
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				glog.V(2).Infof("rejected token for %s: %v", r.URL.Path, err)
				ReturnHTTPMessage(w, r, http.StatusUnauthorized, TypeError, auth.ErrInvalidToken.Error())
				return
			}
			ctx := context.WithValue(r.Context(), userKey, claims.User())
			ctx = backend.WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Metrics holds the API collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscholars_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscholars_http_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscholars_attempts_finalized_total",
				Help: "Total number of finalized quiz attempts",
			},
			[]string{"level", "passed"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.attempts)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) attemptFinalized(level string, passed bool) {
	m.attempts.WithLabelValues(level, strconv.FormatBool(passed)).Inc()
}

// instrument records the count and duration of every routed request.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := prometheus.NewTimer(m.duration.WithLabelValues(route, r.Method))
		next.ServeHTTP(rec, r)
		timer.ObserveDuration()
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
