package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgo/accord/internal/middleware"
	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/scoring"
	"github.com/forgo/accord/internal/service"
)

// CompatibilityHandler handles on-demand scoring and stored match endpoints
type CompatibilityHandler struct {
	compatibilityService *service.CompatibilityService
	matchService         *service.MatchComputationService
}

// NewCompatibilityHandler creates a new compatibility handler
func NewCompatibilityHandler(compatibilityService *service.CompatibilityService, matchService *service.MatchComputationService) *CompatibilityHandler {
	return &CompatibilityHandler{
		compatibilityService: compatibilityService,
		matchService:         matchService,
	}
}

// Get handles GET /v1/compatibility/{partnershipId}
func (h *CompatibilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	self := middleware.GetPartnershipID(r.Context())
	other := chi.URLParam(r, "partnershipId")
	if other == "" {
		WriteError(w, model.NewBadRequestError("partnership ID required"))
		return
	}

	result, err := h.compatibilityService.Calculate(r.Context(), self, other)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "calculate compatibility"))
		return
	}

	WriteData(w, http.StatusOK, result, map[string]string{
		"self":      "/v1/compatibility/" + other,
		"handshake": "/v1/handshakes",
	})
}

// Preview handles POST /v1/compatibility/preview - score two raw answer sets
func (h *CompatibilityHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req model.CompatibilityPreviewRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, invalidBody())
		return
	}

	var weights scoring.Weights
	if len(req.Weights) > 0 {
		weights = scoring.Weights(req.Weights)
	}

	result, err := h.compatibilityService.CalculateRaw(req.A, req.B, weights)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "preview compatibility"))
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// ListMatches handles GET /v1/matches - stored matches of the caller, best first
func (h *CompatibilityHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	partnershipID := middleware.GetPartnershipID(r.Context())

	matches, err := h.matchService.MatchesFor(r.Context(), partnershipID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list matches"))
		return
	}
	if matches == nil {
		matches = []model.MatchView{}
	}

	WriteCollection(w, http.StatusOK, matches, len(matches), map[string]string{
		"self": "/v1/matches",
	})
}

// Recompute handles POST /v1/admin/matches/recompute
func (h *CompatibilityHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	report, err := h.matchService.RecomputeAllMatches(r.Context())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "recompute matches"))
		return
	}

	WriteData(w, http.StatusOK, report, nil)
}
