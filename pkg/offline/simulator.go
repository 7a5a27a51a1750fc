// Package offline is a deterministic stand-in for the game server. It keeps
// one bundle in a storage.Store and answers the same calls as the remote
// source using keyword rules instead of a model.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
	"github.com/jwebster45206/wuxia-session/pkg/storage"
)

// MaxCultivation caps how many sessions one StartCultivation call may run.
const MaxCultivation = 12

var (
	ErrEmptyAction      = errors.New("action cannot be empty")
	ErrPlayerDead       = errors.New("the character has died")
	ErrCultivationTimes = errors.New("cultivation count out of range")
)

// Simulator implements source.DataSource on top of a persisted Bundle.
type Simulator struct {
	store  storage.Store
	logger *slog.Logger

	mu     sync.Mutex
	bundle *Bundle
}

var _ source.DataSource = (*Simulator)(nil)

// NewSimulator creates a simulator. The bundle is loaded lazily on first use.
func NewSimulator(store storage.Store, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{store: store, logger: logger}
}

// Bundle returns a copy of the current bundle, loading it if needed.
func (s *Simulator) Bundle(ctx context.Context) (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.bundle.Clone(), nil
}

// Reset discards the persisted bundle and starts over from the bootstrap.
func (s *Simulator) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to delete preview state: %w", err)
	}
	s.bundle = nil
	return s.load(ctx)
}

// load reads the bundle from the store. A missing, corrupt or outdated bundle
// is replaced with a fresh bootstrap. Callers hold s.mu.
func (s *Simulator) load(ctx context.Context) error {
	if s.bundle != nil {
		return nil
	}
	data, err := s.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read preview state: %w", err)
	}
	if data != nil {
		var b Bundle
		switch err := json.Unmarshal(data, &b); {
		case err != nil:
			s.logger.Warn("Discarding corrupt preview state", "error", err)
		case b.Version != SchemaVersion:
			s.logger.Warn("Discarding preview state with old schema",
				"version", b.Version, "want", SchemaVersion)
		default:
			b.syncInventory()
			s.bundle = &b
			s.logger.Debug("Loaded preview state", "round", b.Round.Round)
			return nil
		}
	}

	s.logger.Info("Bootstrapping preview state")
	return s.save(ctx, Bootstrap())
}

// save persists b and makes it current. Callers hold s.mu.
func (s *Simulator) save(ctx context.Context, b *Bundle) error {
	b.syncInventory()
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal preview state: %w", err)
	}
	if err := s.store.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to save preview state: %w", err)
	}
	s.bundle = b
	return nil
}

func (s *Simulator) FetchLatestRound(ctx context.Context) (*source.LatestRound, error) {
	b, err := s.Bundle(ctx)
	if err != nil {
		return nil, err
	}
	latest := &source.LatestRound{
		Round:          &b.Round,
		Location:       &b.Location,
		HasNewBounties: b.HasNewBounties,
	}
	if b.Round.Round == 0 {
		latest.Prequel = prequel
	}
	return latest, nil
}

func (s *Simulator) SubmitAction(ctx context.Context, req source.ActionRequest) (*source.ActionResponse, error) {
	text := strings.TrimSpace(req.Action)
	if text == "" {
		return nil, ErrEmptyAction
	}
	return s.advance(ctx, func(b *Bundle) (*Bundle, string) {
		return ApplyAction(b, text)
	})
}

// StartCultivation runs the internal-cultivation rule times times.
func (s *Simulator) StartCultivation(ctx context.Context, times int) (*source.ActionResponse, error) {
	if times < 1 || times > MaxCultivation {
		return nil, fmt.Errorf("%w: want 1 to %d, got %d", ErrCultivationTimes, MaxCultivation, times)
	}
	return s.advance(ctx, func(b *Bundle) (*Bundle, string) {
		stories := make([]string, 0, times)
		for range times {
			var story string
			b, story = ApplyAction(b, "打坐運功")
			stories = append(stories, story)
		}
		b.Round.EventTitle = fmt.Sprintf("閉關修煉（%d次）", times)
		return b, strings.Join(stories, "\n")
	})
}

func (s *Simulator) ForceSuicide(ctx context.Context) (*source.ActionResponse, error) {
	return s.advance(ctx, func(b *Bundle) (*Bundle, string) {
		next := b.Clone()
		next.Round.Round++
		next.Round.IsDead = true
		next.Round.Stamina = 0
		next.Round.EventTitle = "魂歸天外"
		next.Round.PlayerStatus = "已然身故"
		next.Round.Suggestion = ""
		return next, fmt.Sprintf("你在%s了斷此生，江湖從此少了一人。", locationName(next))
	})
}

// advance applies step to the current bundle, persists the result and
// returns it as a full update against the previous round.
func (s *Simulator) advance(ctx context.Context, step func(*Bundle) (*Bundle, string)) (*source.ActionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	if s.bundle.Round.IsDead {
		return nil, ErrPlayerDead
	}

	prev := s.bundle
	next, story := step(prev.Clone())
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Debug("Advanced preview round", "round", next.Round.Round, "time_of_day", next.Round.TimeOfDay)

	location := next.Location
	return &source.ActionResponse{
		Round:    state.FullUpdate(&prev.Round, &next.Round),
		Story:    story,
		Location: &location,
	}, nil
}

func (s *Simulator) FetchInventory(ctx context.Context) ([]state.InventoryItem, error) {
	b, err := s.Bundle(ctx)
	if err != nil {
		return nil, err
	}
	return b.Inventory, nil
}

type inventoryEdit func(items []state.InventoryItem, i int) ([]state.InventoryItem, string, bool)

// EquipItem toggles the item: equipping it unequips whatever held its slot,
// and equipping an equipped item takes it off.
func (s *Simulator) EquipItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return s.editInventory(ctx, instanceID, func(items []state.InventoryItem, i int) ([]state.InventoryItem, string, bool) {
		item := &items[i]
		if item.Slot == "" {
			return items, fmt.Sprintf("%s無法裝備", item.Name), false
		}
		if item.Equipped {
			item.Equipped = false
			return items, fmt.Sprintf("卸下了%s", item.Name), true
		}
		for j := range items {
			if items[j].Equipped && items[j].Slot == item.Slot {
				items[j].Equipped = false
			}
		}
		item.Equipped = true
		return items, fmt.Sprintf("裝備了%s", item.Name), true
	})
}

func (s *Simulator) UnequipItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return s.editInventory(ctx, instanceID, func(items []state.InventoryItem, i int) ([]state.InventoryItem, string, bool) {
		if !items[i].Equipped {
			return items, fmt.Sprintf("%s並未裝備", items[i].Name), false
		}
		items[i].Equipped = false
		return items, fmt.Sprintf("卸下了%s", items[i].Name), true
	})
}

// DropItem removes the whole stack.
func (s *Simulator) DropItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return s.editInventory(ctx, instanceID, func(items []state.InventoryItem, i int) ([]state.InventoryItem, string, bool) {
		message := fmt.Sprintf("丟棄了%s", items[i].Name)
		return slices.Delete(items, i, i+1), message, true
	})
}

// editInventory runs edit against a copy of the inventory. Unknown ids and
// rejected edits come back as unsuccessful responses, not errors.
func (s *Simulator) editInventory(ctx context.Context, instanceID string, edit inventoryEdit) (*source.InventoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	next := s.bundle.Clone()
	i := state.FindItem(next.Inventory, instanceID)
	if i < 0 {
		return inventoryResponse(false, "找不到這件物品", s.bundle.Inventory), nil
	}
	items, message, ok := edit(next.Inventory, i)
	if !ok {
		return inventoryResponse(false, message, s.bundle.Inventory), nil
	}
	next.Inventory = items

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Debug("Updated preview inventory", "item", instanceID, "message", message)
	return inventoryResponse(true, message, next.Inventory), nil
}

func inventoryResponse(success bool, message string, items []state.InventoryItem) *source.InventoryResponse {
	items = state.CloneItems(items)
	return &source.InventoryResponse{
		Success:   success,
		Message:   message,
		Inventory: items,
		BulkScore: state.BulkScore(items),
	}
}

func (s *Simulator) SubmitCombatAction(ctx context.Context, intent combat.Intent) (*source.CombatResponse, error) {
	return nil, fmt.Errorf("offline preview: combat action: %w", source.ErrUnsupported)
}

func (s *Simulator) SubmitSurrender(ctx context.Context) (*source.SurrenderResponse, error) {
	return nil, fmt.Errorf("offline preview: surrender: %w", source.ErrUnsupported)
}
