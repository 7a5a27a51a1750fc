package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/storage"
)

// NewRouter registers every game server endpoint for src. store backs the
// health check. Sources that can reset also get the preview reset endpoint.
func NewRouter(src source.DataSource, store storage.Store, log *slog.Logger) *http.ServeMux {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	mux := http.NewServeMux()

	mux.Handle(source.PathHealth, NewHealthHandler(store, log))

	game := NewGameHandler(src, log)
	mux.HandleFunc(source.PathLatestRound, game.Latest)
	mux.HandleFunc(source.PathInteract, game.Interact)
	mux.HandleFunc(source.PathCultivation, game.Cultivation)
	mux.HandleFunc(source.PathSuicide, game.Suicide)

	inventory := NewInventoryHandler(src, log)
	mux.Handle(source.PathInventory, inventory)
	mux.HandleFunc(source.PathEquip, inventory.Equip)
	mux.HandleFunc(source.PathUnequip, inventory.Unequip)
	mux.HandleFunc(source.PathDrop, inventory.Drop)

	fight := NewCombatHandler(src, log)
	mux.HandleFunc(source.PathCombatAction, fight.Action)
	mux.HandleFunc(source.PathSurrender, fight.Surrender)

	if resetter, ok := src.(Resetter); ok {
		mux.Handle(source.PathPreviewReset, &ResetHandler{source: resetter, logger: log})
	}

	return mux
}
