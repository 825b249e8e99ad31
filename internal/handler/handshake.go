package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/middleware"
	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/internal/service"
)

// HandshakeHandler handles signal and handshake endpoints
type HandshakeHandler struct {
	handshakeService *service.HandshakeService
	autoAccept       *service.SyntheticAutoAccept
	logger           *zap.Logger
}

// HandshakeHandlerConfig holds dependencies for the handshake handler
type HandshakeHandlerConfig struct {
	HandshakeService *service.HandshakeService
	AutoAccept       *service.SyntheticAutoAccept // Optional
	Logger           *zap.Logger                  // Optional
}

// handshakeCreated is the body returned by POST /v1/handshakes
type handshakeCreated struct {
	*model.Handshake
	AutoAccepted bool `json:"auto_accepted"`
}

// NewHandshakeHandler creates a new handshake handler
func NewHandshakeHandler(cfg HandshakeHandlerConfig) *HandshakeHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandshakeHandler{
		handshakeService: cfg.HandshakeService,
		autoAccept:       cfg.AutoAccept,
		logger:           logger.Named("handshake_handler"),
	}
}

// SendSignal handles POST /v1/signals
func (h *HandshakeHandler) SendSignal(w http.ResponseWriter, r *http.Request) {
	from := middleware.GetPartnershipID(r.Context())

	var req model.SendSignalRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, invalidBody())
		return
	}
	if req.To == "" {
		WriteError(w, requiredField("to"))
		return
	}

	outcome, err := h.handshakeService.SendSignal(r.Context(), from, req.To)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "send signal"))
		return
	}

	var links map[string]string
	if outcome.HandshakeID != "" {
		links = map[string]string{"handshake": "/v1/handshakes/" + outcome.HandshakeID}
	}
	WriteData(w, http.StatusOK, outcome, links)
}

// Request handles POST /v1/handshakes
func (h *HandshakeHandler) Request(w http.ResponseWriter, r *http.Request) {
	from := middleware.GetPartnershipID(r.Context())

	var req model.RequestHandshakeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, invalidBody())
		return
	}
	if req.To == "" {
		WriteError(w, requiredField("to"))
		return
	}

	hs, err := h.handshakeService.RequestHandshake(r.Context(), from, req.To)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "request handshake"))
		return
	}

	body := handshakeCreated{Handshake: hs}
	if h.autoAccept != nil {
		// The handshake already exists; a failed auto-accept leaves it pending
		result, err := h.autoAccept.Check(r.Context(), hs.ID, middleware.GetUserID(r.Context()))
		if err != nil {
			h.logger.Warn("synthetic auto-accept failed", zap.String("handshake_id", hs.ID), zap.Error(err))
		} else if result.AutoAccepted {
			if refreshed, err := h.handshakeService.GetHandshake(r.Context(), hs.ID, from); err == nil {
				body.Handshake = refreshed
			}
			body.AutoAccepted = true
		}
	}

	WriteData(w, http.StatusCreated, body, map[string]string{
		"self":    "/v1/handshakes/" + hs.ID,
		"respond": "/v1/handshakes/" + hs.ID + "/respond",
	})
}

// Get handles GET /v1/handshakes/{handshakeId}
func (h *HandshakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	partnershipID := middleware.GetPartnershipID(r.Context())
	handshakeID := chi.URLParam(r, "handshakeId")

	hs, err := h.handshakeService.GetHandshake(r.Context(), handshakeID, partnershipID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, hs, map[string]string{
		"self":    "/v1/handshakes/" + hs.ID,
		"respond": "/v1/handshakes/" + hs.ID + "/respond",
	})
}

// Respond handles POST /v1/handshakes/{handshakeId}/respond
func (h *HandshakeHandler) Respond(w http.ResponseWriter, r *http.Request) {
	partnershipID := middleware.GetPartnershipID(r.Context())
	handshakeID := chi.URLParam(r, "handshakeId")

	var req model.RespondHandshakeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, invalidBody())
		return
	}
	if req.Accept == nil {
		WriteError(w, requiredField("accept"))
		return
	}

	resp, err := h.handshakeService.RespondToHandshake(r.Context(), handshakeID, partnershipID, *req.Accept)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "respond to handshake"))
		return
	}

	WriteData(w, http.StatusOK, resp, map[string]string{
		"handshake": "/v1/handshakes/" + resp.HandshakeID,
	})
}

// Force handles POST /v1/dev/handshakes/force - create a pending handshake
// between two partnerships without consent
func (h *HandshakeHandler) Force(w http.ResponseWriter, r *http.Request) {
	var req model.ForceHandshakeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, invalidBody())
		return
	}

	hs, err := h.handshakeService.ForceHandshake(r.Context(), req.PartnershipA, req.PartnershipB)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "force handshake"))
		return
	}

	h.logger.Info("forced handshake",
		zap.String("handshake_id", hs.ID),
		zap.String("by", middleware.GetUserID(r.Context())),
	)
	WriteData(w, http.StatusCreated, hs, map[string]string{
		"self": "/v1/handshakes/" + hs.ID,
	})
}
