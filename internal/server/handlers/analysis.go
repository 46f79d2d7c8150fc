// internal/server/handlers/analysis.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trendscout/internal/domain/trend"
	"trendscout/internal/service/analysis"
)

// AnalysisHandler handles trend-analysis HTTP requests
type AnalysisHandler struct {
	service *analysis.Service
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
	}
}

// Analyze runs the full discovery pipeline for a creator
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	type analyzeRequest struct {
		Username string `json:"username"`
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if analysis.NormalizeHandle(req.Username) == "" {
		respondWithError(w, http.StatusBadRequest, "Missing username", nil)
		return
	}

	result, err := h.service.Analyze(r.Context(), req.Username)
	if err != nil {
		respondWithAnalysisError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetAnalysis returns the cached analysis for a creator, if any
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "Missing username", nil)
		return
	}

	result, ok := h.service.GetCached(r.Context(), username)
	if !ok {
		respondWithError(w, http.StatusNotFound, "No cached analysis for this creator", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetHistory returns recent archived runs for a creator
func (h *AnalysisHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "Missing username", nil)
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.service.History(r.Context(), username, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}
	if runs == nil {
		runs = []analysis.RunRecord{}
	}

	respondWithJSON(w, http.StatusOK, runs)
}

// GetProfile returns a creator's profile
func (h *AnalysisHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "Missing username", nil)
		return
	}

	profile, err := h.service.Profile(r.Context(), username)
	if err != nil {
		respondWithAnalysisError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// GetPosts returns a creator's recent posts
func (h *AnalysisHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "Missing username", nil)
		return
	}

	count := 20
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if parsed, err := strconv.Atoi(countStr); err == nil && parsed > 0 {
			count = parsed
		}
	}

	posts, err := h.service.Posts(r.Context(), username, count)
	if err != nil {
		respondWithAnalysisError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

// SearchHashtag returns recent posts for a single hashtag
func (h *AnalysisHandler) SearchHashtag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		respondWithError(w, http.StatusBadRequest, "Missing hashtag", nil)
		return
	}

	count := 10
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if parsed, err := strconv.Atoi(countStr); err == nil && parsed > 0 {
			count = parsed
		}
	}

	period := 7
	if periodStr := r.URL.Query().Get("days"); periodStr != "" {
		if parsed, err := strconv.Atoi(periodStr); err == nil && parsed > 0 {
			period = parsed
		}
	}

	posts, err := h.service.SearchHashtag(r.Context(), tag, count, period)
	if err != nil {
		respondWithAnalysisError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

// respondWithAnalysisError maps pipeline errors onto HTTP statuses
func respondWithAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, trend.ErrBusy) {
		respondWithError(w, http.StatusConflict, "Analysis already in progress, retry shortly", err)
		return
	}

	var insufficient *trend.InsufficientDataError
	if errors.As(err, &insufficient) {
		respondWithError(w, http.StatusUnprocessableEntity, insufficient.Error(), err)
		return
	}

	var vendorErr *trend.VendorError
	if errors.As(err, &vendorErr) {
		switch vendorErr.Kind {
		case trend.VendorNotFound:
			respondWithError(w, http.StatusNotFound, "Creator not found", err)
		case trend.VendorRateLimited:
			respondWithError(w, http.StatusTooManyRequests, "Upstream rate limit reached, retry later", err)
		case trend.VendorForbidden:
			respondWithError(w, http.StatusBadGateway, "Upstream rejected the request", err)
		default:
			respondWithError(w, http.StatusBadGateway, "Upstream data source unavailable", err)
		}
		return
	}

	respondWithError(w, http.StatusInternalServerError, "Analysis failed", err)
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
