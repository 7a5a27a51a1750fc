package session

import (
	"context"
	"sync"

	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

// fakeSource is a scriptable source.DataSource.
type fakeSource struct {
	mu sync.Mutex

	latest    *source.LatestRound
	latestErr error

	action    func(req source.ActionRequest) (*source.ActionResponse, error)
	combat    func(intent combat.Intent) (*source.CombatResponse, error)
	surrender func() (*source.SurrenderResponse, error)
	equip     func(id string) (*source.InventoryResponse, error)

	inventory    []state.InventoryItem
	inventoryErr error

	actions        []source.ActionRequest
	intents        []combat.Intent
	inventoryCalls int
}

var _ source.DataSource = (*fakeSource)(nil)

func (f *fakeSource) FetchLatestRound(ctx context.Context) (*source.LatestRound, error) {
	return f.latest, f.latestErr
}

func (f *fakeSource) SubmitAction(ctx context.Context, req source.ActionRequest) (*source.ActionResponse, error) {
	f.mu.Lock()
	f.actions = append(f.actions, req)
	action := f.action
	f.mu.Unlock()
	if action == nil {
		return &source.ActionResponse{Round: &state.RoundUpdate{Round: ptr(req.Round + 1)}}, nil
	}
	return action(req)
}

func (f *fakeSource) SubmitCombatAction(ctx context.Context, intent combat.Intent) (*source.CombatResponse, error) {
	f.mu.Lock()
	f.intents = append(f.intents, intent)
	f.mu.Unlock()
	return f.combat(intent)
}

func (f *fakeSource) SubmitSurrender(ctx context.Context) (*source.SurrenderResponse, error) {
	return f.surrender()
}

func (f *fakeSource) FetchInventory(ctx context.Context) ([]state.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventoryCalls++
	if f.inventoryErr != nil {
		return nil, f.inventoryErr
	}
	return state.CloneItems(f.inventory), nil
}

func (f *fakeSource) EquipItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return f.equip(instanceID)
}

func (f *fakeSource) UnequipItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return f.equip(instanceID)
}

func (f *fakeSource) DropItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return f.equip(instanceID)
}

func (f *fakeSource) StartCultivation(ctx context.Context, times int) (*source.ActionResponse, error) {
	return &source.ActionResponse{
		Round: &state.RoundUpdate{PowerChange: &state.PowerChange{Internal: times}},
		Story: "閉關修煉",
	}, nil
}

func (f *fakeSource) ForceSuicide(ctx context.Context) (*source.ActionResponse, error) {
	return &source.ActionResponse{
		Round: &state.RoundUpdate{IsDead: ptr(true)},
		Story: "魂歸天外",
	}, nil
}

func (f *fakeSource) actionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actions)
}

// serverFailure carries a message the way remote status errors do.
type serverFailure struct {
	msg string
}

var _ source.Failure = (*serverFailure)(nil)

func (e *serverFailure) Error() string { return "API returned status 503: " + e.msg }

func (e *serverFailure) FailureMessage() string { return e.msg }

func ptr[T any](v T) *T { return &v }

func sword() state.InventoryItem {
	return state.InventoryItem{
		InstanceID: "inv-1", TemplateID: "sword", Name: "長劍", Quantity: 1,
		Type: "sword", Slot: state.SlotWeapon, Equipped: true,
	}
}

func latestRound() *source.LatestRound {
	return &source.LatestRound{
		Round: &state.RoundSnapshot{
			Round:     3,
			Location:  []string{"江南", "杭州"},
			NPCs:      []state.NPCRecord{{Name: "岳不群", Friendliness: state.FriendlinessWary}},
			TimeOfDay: "清晨",
			Internal:  10,
			Stamina:   80,
			Inventory: []state.InventoryItem{sword()},
		},
		Location: &source.LocationData{Name: "杭州"},
		Prequel:  "華山派大弟子下山歷練。",
	}
}

func fightSetup(enemyHP int) *combat.Setup {
	return &combat.Setup{
		Turn: 1,
		Player: combat.CombatantSpec{
			ID: "player", Name: "令狐沖", HP: 60, MaxHP: 60, MP: 20, MaxMP: 20,
			Techniques: []combat.Technique{
				{Name: "獨孤九劍", Strategy: combat.StrategyAttack, BaseCost: 10, MaxLevel: 3, RequiredWeapon: "sword"},
			},
		},
		Enemies: []combat.CombatantSpec{
			{ID: "bandit", Name: "山賊", HP: enemyHP, MaxHP: 40},
		},
	}
}
