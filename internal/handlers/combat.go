package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
)

type CombatHandler struct {
	source source.DataSource
	logger *slog.Logger
}

func NewCombatHandler(src source.DataSource, logger *slog.Logger) *CombatHandler {
	return &CombatHandler{
		source: src,
		logger: logger,
	}
}

// Action submits one confirmed combat intent.
func (h *CombatHandler) Action(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}

	var intent combat.Intent
	if !decode(w, r, h.logger, &intent) {
		return
	}
	if intent.Strategy == "" || intent.TargetID == "" {
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "strategy and targetId are required")
		return
	}

	resp, err := h.source.SubmitCombatAction(r.Context(), intent)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *CombatHandler) Surrender(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}

	resp, err := h.source.SubmitSurrender(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
