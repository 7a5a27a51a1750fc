// Package source defines the authoritative game data source the session
// talks to. The remote HTTP client and the offline simulator both implement
// DataSource, so nothing above this package knows which one is in use.
package source

import (
	"context"
	"errors"

	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

var (
	// ErrUnauthorized means the credential is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProtocolShape means a response lacked a field the protocol requires.
	ErrProtocolShape = errors.New("malformed response")

	// ErrUnsupported is returned by sources that do not emulate an endpoint.
	ErrUnsupported = errors.New("operation not supported")
)

// Failure is implemented by errors that carry the source's own description
// of what went wrong, apart from any local wrapping.
type Failure interface {
	error
	FailureMessage() string
}

// HTTP endpoint paths of the game server, relative to its base URL.
const (
	PathHealth       = "/health"
	PathLatestRound  = "/api/game/latest"
	PathInteract     = "/api/game/interact"
	PathSuicide      = "/api/game/suicide"
	PathCombatAction = "/api/combat/action"
	PathSurrender    = "/api/combat/surrender"
	PathInventory    = "/api/inventory"
	PathEquip        = "/api/inventory/equip"
	PathUnequip      = "/api/inventory/unequip"
	PathDrop         = "/api/inventory/drop"
	PathCultivation  = "/api/cultivation/start"

	// PathPreviewReset is only served by the preview API.
	PathPreviewReset = "/api/preview/reset"
)

// RequestIDHeader correlates one request across client and server logs.
const RequestIDHeader = "X-Request-ID"

// Surrender statuses.
const (
	SurrenderAccepted = "ACCEPTED"
	SurrenderRejected = "REJECTED"
)

// LocationData describes where the player stands.
type LocationData struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Path        []string `json:"path,omitempty"`
	Neighbors   []string `json:"neighbors,omitempty"`
}

// LatestRound is what a session starts from.
type LatestRound struct {
	Round          *state.RoundSnapshot `json:"roundData"`
	Location       *LocationData        `json:"locationData,omitempty"`
	Prequel        string               `json:"prequel,omitempty"`
	HasNewBounties bool                 `json:"hasNewBounties"`
}

// ActionRequest is one free-text turn.
type ActionRequest struct {
	Action string `json:"action"`
	Round  int    `json:"round"`
	Model  string `json:"model,omitempty"`
}

// ActionResponse is the result of one free-text turn. CombatInfo is set
// when the action started a fight.
type ActionResponse struct {
	Round      *state.RoundUpdate `json:"roundData"`
	Story      string             `json:"story,omitempty"`
	Location   *LocationData      `json:"locationData,omitempty"`
	CombatInfo *combat.Setup      `json:"combatInfo,omitempty"`
}

// CombatResponse is the result of one combat turn.
type CombatResponse struct {
	Combat    *combat.Setup      `json:"combatState"`
	Narrative string             `json:"narrative,omitempty"`
	Status    string             `json:"status"`
	NewRound  *state.RoundUpdate `json:"newRound,omitempty"`
}

// SurrenderResponse is the result of asking to yield.
type SurrenderResponse struct {
	Status    string             `json:"status"`
	Narrative string             `json:"narrative,omitempty"`
	NewRound  *state.RoundUpdate `json:"newRound,omitempty"`
}

// InventoryResponse is returned by equip, unequip and drop.
type InventoryResponse struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message,omitempty"`
	Inventory []state.InventoryItem `json:"inventory"`
	BulkScore int                   `json:"bulkScore"`
}

// DataSource is the authoritative game backend.
type DataSource interface {
	FetchLatestRound(ctx context.Context) (*LatestRound, error)
	SubmitAction(ctx context.Context, req ActionRequest) (*ActionResponse, error)
	SubmitCombatAction(ctx context.Context, intent combat.Intent) (*CombatResponse, error)
	SubmitSurrender(ctx context.Context) (*SurrenderResponse, error)
	FetchInventory(ctx context.Context) ([]state.InventoryItem, error)
	EquipItem(ctx context.Context, instanceID string) (*InventoryResponse, error)
	UnequipItem(ctx context.Context, instanceID string) (*InventoryResponse, error)
	DropItem(ctx context.Context, instanceID string) (*InventoryResponse, error)
	StartCultivation(ctx context.Context, times int) (*ActionResponse, error)
	ForceSuicide(ctx context.Context) (*ActionResponse, error)
}
