// ABOUTME: REST API server for accounts and org charts
// ABOUTME: Wires routes, authentication, CORS and metrics around the directory service
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/viz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Options configures a Server.
type Options struct {
	Secret      []byte
	CORSOrigins []string
	MetricsPath string
	// Registry receives the HTTP metrics and is served at MetricsPath.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry
	Agent    Agent
}

type Server struct {
	svc         *directory.Service
	log         logrus.FieldLogger
	secret      []byte
	graphs      *viz.GraphGenerator
	agent       Agent
	registry    *prometheus.Registry
	metrics     *httpMetrics
	corsOrigins []string
	metricsPath string
}

func NewServer(svc *directory.Service, log logrus.FieldLogger, opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		svc:         svc,
		log:         log,
		secret:      opts.Secret,
		graphs:      viz.NewGraphGenerator(),
		agent:       opts.Agent,
		registry:    reg,
		metrics:     newHTTPMetrics(reg),
		corsOrigins: origins,
		metricsPath: metricsPath,
	}
}

// Handler returns the full HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observe)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle(s.metricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/org-chart/{accountId}", s.handleListPersons).Methods(http.MethodGet)
	api.HandleFunc("/org-chart/{accountId}/chart", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/org-chart/{accountId}/graph", s.handleGraph).Methods(http.MethodGet)
	api.HandleFunc("/org-chart/{accountId}/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/org-chart/{accountId}/audit", s.handleAudit).Methods(http.MethodGet)
	api.HandleFunc("/org-chart/{accountId}/repair", s.handleRepair).Methods(http.MethodPost)
	api.HandleFunc("/org-chart/{accountId}/reparent", s.handleReparent).Methods(http.MethodPost)

	api.HandleFunc("/customer/bulk-update", s.handleBulkUpdate).Methods(http.MethodPost)
	api.HandleFunc("/customer/tree/{email}", s.handlePersonTree).Methods(http.MethodGet)
	api.HandleFunc("/customer/{email}", s.handleGetPerson).Methods(http.MethodGet)
	api.HandleFunc("/customer/{email}", s.handleUpsertPerson).Methods(http.MethodPut)
	api.HandleFunc("/customer/{email}", s.handleDeletePerson).Methods(http.MethodDelete)
	api.HandleFunc("/customer", s.handleCreatePerson).Methods(http.MethodPost)

	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleSaveAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)

	api.HandleFunc("/agent/query", s.handleAgentQuery).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
