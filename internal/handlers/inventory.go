package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

type InventoryHandler struct {
	source source.DataSource
	logger *slog.Logger
}

func NewInventoryHandler(src source.DataSource, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		source: src,
		logger: logger,
	}
}

type inventoryListResponse struct {
	Inventory []state.InventoryItem `json:"inventory"`
	BulkScore int                   `json:"bulkScore"`
}

// ServeHTTP lists the inventory.
func (h *InventoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodGet) {
		return
	}

	items, err := h.source.FetchInventory(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []state.InventoryItem{}
	}
	writeJSON(w, h.logger, http.StatusOK, inventoryListResponse{
		Inventory: items,
		BulkScore: state.BulkScore(items),
	})
}

type itemRequest struct {
	InstanceID string `json:"instanceId"`
}

type itemCall func(ctx context.Context, instanceID string) (*source.InventoryResponse, error)

func (h *InventoryHandler) Equip(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "equip", h.source.EquipItem)
}

func (h *InventoryHandler) Unequip(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "unequip", h.source.UnequipItem)
}

func (h *InventoryHandler) Drop(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "drop", h.source.DropItem)
}

// edit runs one item operation. A rejected edit is still a 200 with
// success false, matching what the game server sends.
func (h *InventoryHandler) edit(w http.ResponseWriter, r *http.Request, op string, call itemCall) {
	w.Header().Set("Content-Type", "application/json")
	if !allow(w, r, h.logger, http.MethodPost) {
		return
	}

	var req itemRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	req.InstanceID = strings.TrimSpace(req.InstanceID)
	if req.InstanceID == "" {
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "instanceId is required")
		return
	}

	resp, err := call(r.Context(), req.InstanceID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Debug("Inventory edit",
		"op", op,
		"instance_id", req.InstanceID,
		"success", resp.Success)
	writeJSON(w, h.logger, http.StatusOK, resp)
}
