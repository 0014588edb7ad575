package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/engines"
)

// EngineHandler serves GET /engines/status
type EngineHandler struct {
	registry *engines.Registry
	logger   arbor.ILogger
}

// NewEngineHandler creates the engine status handler
func NewEngineHandler(registry *engines.Registry, logger arbor.ILogger) *EngineHandler {
	return &EngineHandler{registry: registry, logger: logger}
}

// StatusHandler returns every registered engine with its capabilities
// and rolling stats
func (h *EngineHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	statuses := h.registry.Status()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"engines": statuses,
		"total":   len(statuses),
	})
}
