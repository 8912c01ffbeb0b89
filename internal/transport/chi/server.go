// Package chi is the HTTP API: recommendations, users, swipes,
// preferences, health, and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	healthuc "github.com/urpick/urpick/internal/usecase/health"
	profileuc "github.com/urpick/urpick/internal/usecase/profile"
	recommenduc "github.com/urpick/urpick/internal/usecase/recommend"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	recommender   Recommender
	profiles      ProfileService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, profiles ProfileService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		recommender: recommender,
		profiles:    profiles,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/recommendations", s.GetRecommendations)
		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.CreateUser)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", s.GetUser)
				r.Put("/preferences", s.UpdatePreferences)
				r.Post("/swipes", s.RecordSwipe)
				r.Get("/swipes", s.GetSwipes)
			})
		})
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// --- Recommendations ---

type recommendationRequest struct {
	Query      string `json:"query"`
	UserID     string `json:"userId"`
	MaxResults int    `json:"maxResults"`
	MinPrice   int    `json:"minPrice"`
	MaxPrice   int    `json:"maxPrice"`
}

type recommendationData struct {
	Products []domain.Product `json:"products"`
	Strategy string           `json:"strategy"`
	Count    int              `json:"count"`
}

type recommendationMeta struct {
	ProcessingTimeMS int64  `json:"processingTime"`
	Timestamp        string `json:"timestamp"`
}

// GetRecommendations handles POST /api/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	result, err := s.recommender.Recommend(r.Context(), recommenduc.Request{
		Query:      req.Query,
		UserID:     req.UserID,
		MaxResults: req.MaxResults,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: recommendationData{
			Products: result.Products,
			Strategy: string(result.Strategy),
			Count:    len(result.Products),
		},
		Meta: &recommendationMeta{
			ProcessingTimeMS: result.ProcessingTime.Milliseconds(),
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// --- Users ---

// CreateUser handles POST /api/users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.profiles.CreateUser(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    map[string]string{"userId": u.ID},
	})
}

type userData struct {
	UserID       string                    `json:"userId"`
	Preferences  *domain.PreferenceProfile `json:"preferences"`
	SwipeCount   int                       `json:"swipeCount"`
	CreatedAt    time.Time                 `json:"createdAt"`
	LastActiveAt time.Time                 `json:"lastActiveAt"`
}

// GetUser handles GET /api/users/{userID}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: userData{
			UserID:       p.User.ID,
			Preferences:  p.Preferences,
			SwipeCount:   p.SwipeCount,
			CreatedAt:    p.User.CreatedAt,
			LastActiveAt: p.User.LastActiveAt,
		},
	})
}

// --- Preferences ---

type preferencesRequest struct {
	PriceRange *domain.PriceRange `json:"priceRange"`
	Categories *[]string          `json:"categories"`
	Brands     *[]string          `json:"brands"`
}

// UpdatePreferences handles PUT /api/users/{userID}/preferences.
func (s *Server) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if req.PriceRange == nil && req.Categories == nil && req.Brands == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "No preferences to update")
		return
	}

	prefs, err := s.profiles.UpdatePreferences(r.Context(), chi.URLParam(r, "userID"), profileuc.PreferenceUpdate{
		PriceRange: req.PriceRange,
		Categories: req.Categories,
		Brands:     req.Brands,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    prefs,
	})
}

// --- Swipes ---

type swipeRequest struct {
	ProductID     string        `json:"productId"`
	Query         string        `json:"query"`
	Action        string        `json:"action"`
	ProductName   string        `json:"productName"`
	ProductPrice  int           `json:"productPrice"`
	ProductSource domain.Source `json:"productSource"`
}

// RecordSwipe handles POST /api/users/{userID}/swipes.
func (s *Server) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	err := s.profiles.RecordSwipe(r.Context(), domain.Swipe{
		UserID:        chi.URLParam(r, "userID"),
		ProductID:     req.ProductID,
		Query:         req.Query,
		Action:        domain.SwipeAction(req.Action),
		ProductName:   req.ProductName,
		ProductPrice:  req.ProductPrice,
		ProductSource: req.ProductSource,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{Success: true})
}

// GetSwipes handles GET /api/users/{userID}/swipes.
func (s *Server) GetSwipes(w http.ResponseWriter, r *http.Request) {
	action := domain.SwipeAction(r.URL.Query().Get("action"))

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "limit must be a positive integer")
			return
		}
		limit = n
	}

	swipes, err := s.profiles.ListSwipes(r.Context(), chi.URLParam(r, "userID"), action, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if swipes == nil {
		swipes = []domain.Swipe{}
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: map[string]any{
			"swipes": swipes,
			"count":  len(swipes),
		},
	})
}

// --- Health / Metrics ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Plumbing ---

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   errorBody{Code: code, Message: message},
	})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrUserNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}
