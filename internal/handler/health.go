package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/accord/internal/model"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	store   Pinger
	version string
}

// NewHealthHandler creates a health handler. store may be nil.
func NewHealthHandler(store Pinger, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			WriteError(w, model.NewServiceUnavailableError("store unreachable"))
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
