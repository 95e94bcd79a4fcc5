// Package chi exposes the thin HTTP surface over the matching core: item
// ingestion, the ranked match list, the consistency audit, and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	audituc "github.com/reclaimhq/reclaim/internal/usecase/audit"
	healthuc "github.com/reclaimhq/reclaim/internal/usecase/health"
	matchuc "github.com/reclaimhq/reclaim/internal/usecase/match"
)

// ItemWriter stores and removes item reports.
type ItemWriter interface {
	Put(ctx context.Context, rec domain.ItemRecord) (created bool, err error)
	Delete(ctx context.Context, id string) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	items         ItemWriter
	match         *matchuc.Service
	audit         *audituc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	items ItemWriter,
	match *matchuc.Service,
	audit *audituc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		items:  items,
		match:  match,
		audit:  audit,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"),
		sentinelHandler(domain.ErrInvalidDisposition, http.StatusBadRequest, "invalid_disposition"),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrExtractionFailed, http.StatusBadGateway, "extraction_failed"),
	}
	return s
}

// RegisterRoutes attaches all API routes to the given router. Middleware
// (recovery, auth, metrics) is assembled by the caller before routes.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/items", s.handleCreateItem)
		r.Delete("/items/{id}", s.handleDeleteItem)
		r.Post("/items/{id}/process", s.handleProcessItem)
		r.Get("/items/{id}/matches", s.handleListMatches)
		r.Post("/audit", s.handleAudit)
	})
}

type createItemRequest struct {
	ID          string   `json:"id,omitempty"`
	UserID      string   `json:"user_id"`
	Disposition string   `json:"disposition"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	disposition := domain.Disposition(req.Disposition)
	if !disposition.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_disposition",
			"disposition must be \"lost\" or \"found\"")
		return
	}
	if req.UserID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "user_id and title are required")
		return
	}

	rec := domain.ItemRecord{
		ID:          req.ID,
		UserID:      req.UserID,
		Disposition: disposition,
		Status:      domain.StatusActive,
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if req.Latitude != nil && req.Longitude != nil {
		coords := domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if !coords.Valid() {
			writeError(w, http.StatusBadRequest, "bad_request", "coordinates out of range")
			return
		}
		rec.Coords = &coords
	}

	created, err := s.items.Put(r.Context(), rec)
	if err != nil {
		s.respondError(w, err, "create item")
		return
	}

	// Ingestion trigger: run the matching pipeline for the new record.
	if err := s.match.ProcessNewItem(r.Context(), rec.ID); err != nil {
		s.respondError(w, err, "process new item")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]string{"id": rec.ID})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.items.Delete(r.Context(), id); err != nil {
		s.respondError(w, err, "delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProcessItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.match.ProcessNewItem(r.Context(), id); err != nil {
		s.respondError(w, err, "process item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "processed"})
}

type displayMatchResponse struct {
	ID            string  `json:"id"`
	Score         float64 `json:"score"`
	ImageScore    float64 `json:"imageScore"`
	TextScore     float64 `json:"textScore"`
	LocationScore float64 `json:"locationScore"`
	Title         string  `json:"title"`
	Image         string  `json:"image"`
	User          string  `json:"user"`
	Email         string  `json:"email"`
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	matches, err := s.match.RankForDisplay(r.Context(), id)
	if err != nil {
		s.respondError(w, err, "rank matches")
		return
	}

	out := make([]displayMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, displayMatchResponse{
			ID:            m.CandidateID,
			Score:         m.Confidence,
			ImageScore:    m.Scores.Image,
			TextScore:     m.Scores.Text,
			LocationScore: m.Scores.Location,
			Title:         m.Title,
			Image:         m.Image,
			User:          m.UserName,
			Email:         m.UserEmail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.audit.Run(r.Context())
	if err != nil {
		s.respondError(w, err, "run audit")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// respondError maps domain errors to HTTP responses via the handler chain.
func (s *Server) respondError(w http.ResponseWriter, err error, msg string) {
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.String("op", msg), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", msg)
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
