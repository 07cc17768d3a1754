package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/metaprobe/internal/httpapi/middleware"
	"github.com/hamed0406/metaprobe/internal/repo"
	"github.com/hamed0406/metaprobe/internal/scheduler"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type Server struct {
	Logger   *zap.Logger
	Runs     repo.RunStore
	Repeater *scheduler.Repeater
	Endpoint string
}

func NewServer(l *zap.Logger, runs repo.RunStore, rp *scheduler.Repeater, endpoint string) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Runs: runs, Repeater: rp, Endpoint: endpoint}
}

// Router wires public (read) and admin (trigger) routes. An empty
// allowedOrigins list allows any origin.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(apimw.RateLimit(pubRPM, pubBurst))
			pub.Use(apimw.RequireAny(keys))
			pub.Get("/targets", s.handleListTargets)
			pub.Get("/runs", s.handleListRuns)
			pub.Get("/runs/latest", s.handleLatestRun)
			pub.Get("/runs/{id}", s.handleGetRun)
		})
		api.Group(func(adm chi.Router) {
			adm.Use(apimw.RateLimit(admRPM, admBurst))
			adm.Use(apimw.RequireAdmin(keys))
			adm.Post("/runs", s.handleTriggerRun)
		})
	})

	return r
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	var targets []string
	if s.Repeater != nil {
		targets = s.Repeater.Targets
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoint": s.Endpoint,
		"targets":  targets,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	runs, err := s.Runs.List(r.Context(), limit)
	if err != nil {
		s.Logger.Error("list_runs_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Runs.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest_run_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup error")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "no runs yet")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Logger.Error("get_run_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup error")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleTriggerRun runs the probe list synchronously. The run is detached
// from the request context so a dropped client does not truncate it.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if s.Repeater == nil {
		writeError(w, http.StatusServiceUnavailable, "runner not configured")
		return
	}
	run, ok := s.Repeater.TryRunOnce(context.WithoutCancel(r.Context()))
	if !ok {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	s.Logger.Info("run_triggered",
		zap.String("run_id", run.ID),
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Int("passed", run.Summary.Passed),
		zap.Int("total", run.Summary.Total),
	)
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
