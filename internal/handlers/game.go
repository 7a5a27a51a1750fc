package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/wuxia-session/pkg/source"
)

// GameHandler serves the round endpoints: latest, interact, cultivation
// and suicide.
type GameHandler struct {
	source source.DataSource
	logger *slog.Logger
}

func NewGameHandler(src source.DataSource, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		source: src,
		logger: logger,
	}
}

// Latest handles GET requests for the current round.
func (h *GameHandler) Latest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodGet) {
		return
	}

	latest, err := h.source.FetchLatestRound(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, latest)
}

// Interact handles one free-text action.
func (h *GameHandler) Interact(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}

	var req source.ActionRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	h.logger.Debug("Processing action",
		"round", req.Round,
		"model", req.Model,
		"action_length", len(req.Action))

	resp, err := h.source.SubmitAction(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

type cultivationRequest struct {
	Times int `json:"times"`
}

// Cultivation runs one or more cultivation sessions.
func (h *GameHandler) Cultivation(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}

	var req cultivationRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	resp, err := h.source.StartCultivation(r.Context(), req.Times)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *GameHandler) Suicide(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}

	resp, err := h.source.ForceSuicide(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Character ended by request", "remote_addr", r.RemoteAddr)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// Resetter is a source that can return to its starting state.
type Resetter interface {
	Reset(ctx context.Context) error
}

type resetResponse struct {
	Status string `json:"status"`
}

// ResetHandler discards preview progress.
type ResetHandler struct {
	source Resetter
	logger *slog.Logger
}

func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}
	if err := h.source.Reset(r.Context()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Preview state reset", "remote_addr", r.RemoteAddr)
	writeJSON(w, h.logger, http.StatusOK, resetResponse{Status: "reset"})
}
