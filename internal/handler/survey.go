package handler

import (
	"net/http"

	"github.com/forgo/accord/internal/middleware"
	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/service"
)

// SurveyHandler handles survey answer endpoints
type SurveyHandler struct {
	surveyService *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveyService *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

// GetAnswers handles GET /v1/survey
func (h *SurveyHandler) GetAnswers(w http.ResponseWriter, r *http.Request) {
	partnershipID := middleware.GetPartnershipID(r.Context())

	answers, err := h.surveyService.GetAnswers(r.Context(), partnershipID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get survey"))
		return
	}

	WriteData(w, http.StatusOK, answers, map[string]string{
		"self": "/v1/survey",
	})
}

// SaveAnswers handles PUT /v1/survey - merge answers into the stored survey
func (h *SurveyHandler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	partnershipID := middleware.GetPartnershipID(r.Context())

	var req model.SaveAnswersRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, invalidBody())
		return
	}
	if len(req.Answers) == 0 {
		WriteError(w, requiredField("answers"))
		return
	}

	progress, err := h.surveyService.SaveAnswers(r.Context(), partnershipID, req.Answers)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "save survey"))
		return
	}

	WriteData(w, http.StatusOK, progress, map[string]string{
		"self":    "/v1/survey",
		"matches": "/v1/matches",
	})
}
