// Package handler exposes the search server over HTTP/JSON.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/batch"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/paginator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Searcher serves status-filtered searches: the executor itself, or the
// cached searcher in front of it.
type Searcher interface {
	FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error)
}

type Handler struct {
	engine   *indexer.Engine
	executor *executor.Executor
	searcher Searcher
	queue    *analytics.RequestQueue
	cache    *cache.CachedSearcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New builds a handler. queue must track requests to searcher. queryCache
// and m may be nil.
func New(
	engine *indexer.Engine,
	exec *executor.Executor,
	searcher Searcher,
	queue *analytics.RequestQueue,
	queryCache *cache.CachedSearcher,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		engine:   engine,
		executor: exec,
		searcher: searcher,
		queue:    queue,
		cache:    queryCache,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}/frequencies", h.WordFrequencies)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.MatchDocument)
	mux.HandleFunc("POST /api/v1/documents/deduplicate", h.RemoveDuplicates)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/search/batch", h.BatchSearch)
	mux.HandleFunc("GET /api/v1/requests/stats", h.RequestStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type addDocumentRequest struct {
	ID      *int         `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ID == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "field 'id' is required"))
		return
	}
	if err := h.engine.AddDocument(*req.ID, req.Text, req.Status, req.Ratings); err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("document added", "doc_id", *req.ID, "status", req.Status)
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": *req.ID, "status": req.Status})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := h.engine.DocumentIDs()
	if ids == nil {
		ids = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"count": len(ids), "ids": ids})
}

func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.engine.RemoveDocument(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.WordFrequencies(id))
}

func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	words, status, err := h.executor.MatchDocument(r.URL.Query().Get("q"), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"words": words, "status": status})
}

func (h *Handler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	var opts []dedup.Option
	if h.metrics != nil {
		opts = append(opts, dedup.WithCounter(h.metrics.DuplicatesRemovedTotal))
	}
	removed := dedup.RemoveDuplicates(h.engine, opts...)
	if removed == nil {
		removed = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

type searchResponse struct {
	Query   string             `json:"query"`
	Status  index.Status       `json:"status"`
	Results []ranker.ScoredDoc `json:"results"`
}

// Search ranks q among documents of the given status (ACTUAL by default).
// An explicit mode bypasses the cache but is still tracked.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")

	status := index.StatusActual
	if s := params.Get("status"); s != "" {
		parsed, err := index.ParseStatus(s)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err))
			return
		}
		status = parsed
	}

	var (
		docs []ranker.ScoredDoc
		err  error
	)
	if m := params.Get("mode"); m != "" {
		mode, perr := executor.ParseMode(m)
		if perr != nil {
			h.writeError(w, r, perr)
			return
		}
		docs, err = h.queue.Track(query, status.String(), func() ([]ranker.ScoredDoc, error) {
			return h.executor.FindTopDocumentsWithMode(mode, query, ranker.StatusIs(status))
		})
	} else {
		docs, err = h.queue.AddFindRequestByStatus(query, status)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("search completed",
		"query", query,
		"status", status,
		"returned", len(docs),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{Query: query, Status: status, Results: docs})
}

type batchRequest struct {
	Queries []string `json:"queries"`
}

type batchResponse struct {
	Total int                  `json:"total"`
	Pages [][]ranker.ScoredDoc `json:"pages"`
}

// BatchSearch runs every query for ACTUAL documents, joins the results in
// query order and splits them into pages of page_size.
func (h *Handler) BatchSearch(w http.ResponseWriter, r *http.Request) {
	pageSize := 0
	if s := r.URL.Query().Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "page_size must be a non-negative integer"))
			return
		}
		pageSize = n
	}
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	joined, err := batch.ProcessQueriesJoined(h.searcher, req.Queries)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, batchResponse{
		Total: len(joined),
		Pages: paginator.Paginate(joined, pageSize),
	})
}

func (h *Handler) RequestStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]int{"no_result_requests": h.queue.NoResultRequests()})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("document id %q is not an integer: %w", raw, apperrors.ErrInvalidDocumentID)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "request body is empty")
		}
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid request body: %v", err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "error", err)
		message = "internal error"
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	h.writeJSON(w, code, map[string]string{"error": message})
}
