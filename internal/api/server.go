// Package api exposes the hierarchy builder and traverser over HTTP,
// grounded on the teacher's gorilla/mux route setup in cmd/kernel.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dgonzap30/coursetree/internal/hierarchy"
	"github.com/dgonzap30/coursetree/internal/jsonx"
)

// Store holds built trees in memory, keyed by tree id. No persistence:
// trees are lost on restart (spec.md Non-goals).
type Store struct {
	mu    sync.RWMutex
	trees map[string]*hierarchy.HierarchyTree
}

// NewStore builds an empty tree registry.
func NewStore() *Store {
	return &Store{trees: make(map[string]*hierarchy.HierarchyTree)}
}

func (s *Store) put(tree *hierarchy.HierarchyTree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[tree.ID] = tree
}

func (s *Store) get(id string) (*hierarchy.HierarchyTree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[id]
	return t, ok
}

// Server wires a Builder and Traverser onto an HTTP API.
type Server struct {
	builder     *hierarchy.Builder
	buildCfg    hierarchy.BuildConfig
	traverseCfg hierarchy.TraverseConfig
	store       *Store
	logger      *zap.Logger
}

// NewServer builds a Server. logger may be nil.
func NewServer(builder *hierarchy.Builder, buildCfg hierarchy.BuildConfig, traverseCfg hierarchy.TraverseConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		builder:     builder,
		buildCfg:    buildCfg,
		traverseCfg: traverseCfg,
		store:       NewStore(),
		logger:      logger,
	}
}

// Router builds the mux.Router exposing the build/query/health endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/trees", s.handleBuildTree).Methods(http.MethodPost)
	r.HandleFunc("/v1/trees/{id}/query", s.handleQueryTree).Methods(http.MethodPost)
	r.HandleFunc("/v1/trees/{id}", s.handleGetTree).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

type buildRequest struct {
	CorpusID  string               `json:"corpus_id"`
	Documents []hierarchy.Document `json:"documents"`
}

type buildResponse struct {
	TreeID        string                 `json:"tree_id"`
	RootIDs       []string               `json:"root_ids"`
	NodeCount     int                    `json:"node_count"`
	LeafCount     int                    `json:"leaf_count"`
	InternalCount int                    `json:"internal_count"`
	MaxDepth      int                    `json:"max_depth"`
	Metrics       hierarchy.BuildMetrics `json:"metrics"`
}

func (s *Server) handleBuildTree(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CorpusID == "" {
		req.CorpusID = uuid.NewString()
	}

	tree, err := s.builder.BuildHierarchy(r.Context(), req.CorpusID, req.Documents, nil)
	if err != nil {
		s.logger.Error("build hierarchy failed", zap.Error(err), zap.String("corpus_id", req.CorpusID))
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.store.put(tree)
	writeJSON(w, http.StatusCreated, buildResponse{
		TreeID:        tree.ID,
		RootIDs:       tree.RootIDs,
		NodeCount:     len(tree.Nodes),
		LeafCount:     tree.LeafCount,
		InternalCount: tree.InternalCount,
		MaxDepth:      tree.MaxDepth,
		Metrics:       tree.Metrics,
	})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tree, ok := s.store.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "tree not found")
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

type queryRequest struct {
	Embedding []float64 `json:"embedding"`
}

func (s *Server) handleQueryTree(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tree, ok := s.store.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "tree not found")
		return
	}

	var req queryRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	traverser := hierarchy.NewTraverser(s.traverseCfg)
	result, err := traverser.Traverse(tree, req.Embedding)
	if err != nil {
		s.logger.Error("traverse failed", zap.Error(err), zap.String("tree_id", id))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func statusFor(err error) int {
	switch {
	case hierarchy.IsInvalidInput(err), hierarchy.IsDimensionMismatch(err):
		return http.StatusBadRequest
	case hierarchy.IsCancelled(err):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonx.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully within shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, readTimeout, writeTimeout, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
