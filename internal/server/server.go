// Package server exposes scan and list operations over HTTP so external
// agents can drive envsync without the CLI. It is a thin pass-through: every
// endpoint maps 1:1 onto an operation the CLI already performs.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/discovery"
	"github.com/jenian/envsync/internal/gitignore"
	"github.com/jenian/envsync/internal/index"
	"github.com/jenian/envsync/internal/reconcile"
	"github.com/jenian/envsync/internal/store"
)

// Handler serves the envsync HTTP API for one central namespace.
type Handler struct {
	Store     store.Store
	Oracle    gitignore.Oracle
	Logger    *zap.Logger
	Namespace string
}

// NewRouter mounts the API:
//
//	POST /api/scan  {path, environment?, maxDepth?} → reconcile.Report
//	POST /api/list  {}                              → folders with environments and keys
//	GET  /healthz                                   → 200
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestLogging(h.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", h.scan)
		r.Post("/list", h.list)
	})
	return r
}

// withRequestLogging tags each request with an ID and logs it.
func withRequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			w.Header().Set("X-Request-Id", requestID)
			logger.Info("request",
				zap.String("id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
		})
	}
}

type scanRequest struct {
	Path        string `json:"path"`
	Environment string `json:"environment"`
	MaxDepth    *int   `json:"maxDepth"`
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	maxDepth := discovery.DefaultMaxDepth
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}

	scanner := &reconcile.Scanner{
		Store:     h.Store,
		Oracle:    h.Oracle,
		Logger:    h.Logger,
		Namespace: h.Namespace,
		MaxDepth:  maxDepth,
		EnvFilter: req.Environment,
	}
	report, err := scanner.Scan(r.Context(), req.Path)
	if err != nil {
		h.Logger.Error("scan failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

type folderListing struct {
	Folder       string   `json:"folder"`
	Environments []string `json:"environments"`
	Secrets      int      `json:"secrets"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ix, err := index.Build(r.Context(), h.Store, h.Namespace, h.Logger)
	if err != nil {
		h.Logger.Error("list failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	listing := []folderListing{}
	for _, folder := range ix.Folders() {
		envs := ix.Environments(folder)
		count := len(ix.Group(folder, ""))
		for _, env := range envs {
			count += len(ix.Group(folder, env))
		}
		listing = append(listing, folderListing{Folder: folder, Environments: envs, Secrets: count})
	}
	writeJSON(w, map[string]any{"folders": listing})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
