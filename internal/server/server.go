// Package server wires the HTTP surface: auth routes, the project API, stage
// navigation and the live project stream.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adstrategy-service/internal/auth"
	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/common/observability"
	"adstrategy-service/internal/pipeline"
	"adstrategy-service/internal/store"
)

// ReadyCheck reports whether one backing service is reachable.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server holds the router and the services the handlers depend on.
type Server struct {
	router      *mux.Router
	auth        *auth.Service
	store       store.Store
	pipeline    *pipeline.Service
	errors      *apperrors.ErrorHandler
	logger      logger.Logger
	obs         *observability.Observability
	readyChecks []ReadyCheck
}

func New(authSvc *auth.Service, st store.Store, pipe *pipeline.Service, log logger.Logger, obs *observability.Observability, readyChecks []ReadyCheck) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		auth:        authSvc,
		store:       st,
		pipeline:    pipe,
		errors:      apperrors.NewErrorHandler(log),
		logger:      log,
		obs:         obs,
		readyChecks: readyChecks,
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.requestMetrics)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)

	// Everything below requires a resolved identity.
	private := api.NewRoute().Subrouter()
	private.Use(s.auth.Middleware)

	private.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	private.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	private.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	private.HandleFunc("/projects/stream", s.handleProjectStream).Methods(http.MethodGet)
	private.HandleFunc("/projects/{projectID}", s.handleGetProject).Methods(http.MethodGet)
	private.HandleFunc("/projects/{projectID}", s.handleRenameProject).Methods(http.MethodPatch)
	private.HandleFunc("/projects/{projectID}", s.handleDeleteProject).Methods(http.MethodDelete)

	private.HandleFunc("/projects/{projectID}/stages/{stage}", s.handleStageView).Methods(http.MethodGet)
	private.HandleFunc("/projects/{projectID}/stages/{stage}/advance", s.handleAdvance).Methods(http.MethodPost)

	private.HandleFunc("/projects/{projectID}/stage1/items", s.handleAddStage1Item).Methods(http.MethodPost)
	private.HandleFunc("/projects/{projectID}/stage1/items/{itemID}", s.handleUpdateStage1Item).Methods(http.MethodPut)
	private.HandleFunc("/projects/{projectID}/stage1/items/{itemID}", s.handleDeleteStage1Item).Methods(http.MethodDelete)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	healthy := true
	for _, check := range s.readyChecks {
		if err := check.Check(r.Context()); err != nil {
			status[check.Name] = err.Error()
			healthy = false
		} else {
			status[check.Name] = "ok"
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":  healthy,
		"checks": status,
	})
}
