// Package server exposes the quiz engine as a JSON API for the web
// front-end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/finscholars/finscholars/internal/achievements"
	"github.com/finscholars/finscholars/internal/auth"
	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/session"
)

const shutdownTimeout = 10 * time.Second

var (
	corsAllowedHeaders = handlers.AllowedHeaders([]string{"Authorization", "Content-Type"})
	corsAllowedMethods = handlers.AllowedMethods([]string{"GET", "POST", "HEAD", "OPTIONS", "DELETE"})
)

// Deps are the collaborators of a Server. Badges and Metrics may be nil.
type Deps struct {
	Registry    catalog.Registry
	Sessions    *session.Service
	Badges      *achievements.Service
	Issuer      *auth.Issuer
	Metrics     *Metrics
	CORSOrigins []string
}

// Server routes API requests to the session and badge services.
type Server struct {
	registry    catalog.Registry
	sessions    *session.Service
	badges      *achievements.Service
	issuer      *auth.Issuer
	metrics     *Metrics
	validate    *validator.Validate
	corsOrigins []string
}

// New creates a server.
func New(d Deps) *Server {
	s := &Server{
		registry:    d.Registry,
		sessions:    d.Sessions,
		badges:      d.Badges,
		issuer:      d.Issuer,
		metrics:     d.Metrics,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		corsOrigins: d.CORSOrigins,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if len(s.corsOrigins) == 0 {
		s.corsOrigins = []string{"*"}
	}
	return s
}

// SetupRoutes registers every route on r.
func (s *Server) SetupRoutes(r *mux.Router) {
	r.Use(s.metrics.instrument)
	r.HandleFunc("/healthz", s.HealthFunc).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireAuth(s.issuer))
	api.HandleFunc("/modules", s.ListModulesFunc).Methods(http.MethodGet)
	api.HandleFunc("/modules/{id}", s.GetModuleFunc).Methods(http.MethodGet)
	api.HandleFunc("/modules/{id}/progress", s.ModuleProgressFunc).Methods(http.MethodGet)
	api.HandleFunc("/progress", s.ResetProgressFunc).Methods(http.MethodDelete)
	api.HandleFunc("/attempts", s.StartAttemptFunc).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}", s.GetAttemptFunc).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{id}", s.DiscardAttemptFunc).Methods(http.MethodDelete)
	api.HandleFunc("/attempts/{id}/answers", s.SubmitAnswerFunc).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/next", s.NextFunc).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/previous", s.PreviousFunc).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/finalize", s.FinalizeFunc).Methods(http.MethodPost)
	api.HandleFunc("/badges", s.ListBadgesFunc).Methods(http.MethodGet)
	api.HandleFunc("/badges/seen", s.MarkBadgesSeenFunc).Methods(http.MethodPost)
	glog.V(2).Infof("set up routes for API server")
}

// Handler returns the routed API wrapped in CORS, access logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.SetupRoutes(r)

	var h http.Handler = r
	h = handlers.CORS(corsAllowedHeaders, corsAllowedMethods, handlers.AllowedOrigins(s.corsOrigins))(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return handlers.CombinedLoggingHandler(glogWriter{}, h)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		glog.Infof("API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		glog.Info("shutting down API server")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (s *Server) HealthFunc(w http.ResponseWriter, r *http.Request) {
	ReturnHTTPMessage(w, r, http.StatusOK, TypeSuccess, "ok")
}

// glogWriter sends access log lines to glog.
type glogWriter struct{}

func (glogWriter) Write(p []byte) (int, error) {
	glog.V(1).Info(string(p))
	return len(p), nil
}
