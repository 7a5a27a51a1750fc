package offline

import (
	"slices"

	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

const (
	// SchemaVersion must match the persisted bundle or it is rebuilt.
	SchemaVersion = 3

	// StorageKey is where the bundle lives in the configured store.
	StorageKey = "wuxia:preview-state"
)

// Bundle is everything the simulator persists between runs.
type Bundle struct {
	Version        int                   `json:"version"`
	HasNewBounties bool                  `json:"hasNewBounties"`
	Skills         []combat.Technique    `json:"skills"`
	Inventory      []state.InventoryItem `json:"inventory"`
	Location       source.LocationData   `json:"locationData"`
	Round          state.RoundSnapshot   `json:"roundData"`
}

// Clone returns a deep copy.
func (b *Bundle) Clone() *Bundle {
	c := *b
	c.Skills = slices.Clone(b.Skills)
	c.Inventory = state.CloneItems(b.Inventory)
	c.Location.Path = slices.Clone(b.Location.Path)
	c.Location.Neighbors = slices.Clone(b.Location.Neighbors)
	c.Round = *b.Round.Clone()
	return &c
}

// syncInventory mirrors the bundle inventory into the round snapshot.
func (b *Bundle) syncInventory() {
	b.Round.Inventory = state.CloneItems(b.Inventory)
}

const prequel = "成化年間，江南煙雨。你背負一柄青鋼劍，自西湖畔啟程，欲尋失散多年的師門。"

func value(v int) *int { return &v }

// Bootstrap returns the canned starting bundle.
func Bootstrap() *Bundle {
	location := []string{"大明", "江南", "杭州", "西湖畔"}
	b := &Bundle{
		Version: SchemaVersion,
		Skills: []combat.Technique{
			{Name: "太岳三青峰", Strategy: combat.StrategyAttack, BaseCost: 8, MaxLevel: 3, RequiredWeapon: "sword", Description: "劍勢連綿三式"},
			{Name: "羅漢拳", Strategy: combat.StrategyAttack, BaseCost: 4, MaxLevel: 2},
			{Name: "金鐘罩", Strategy: combat.StrategyDefend, BaseCost: 6, MaxLevel: 3},
			{Name: "凌波微步", Strategy: combat.StrategyEvade, BaseCost: 5, MaxLevel: 2},
			{Name: "小還丹心法", Strategy: combat.StrategyHeal, BaseCost: 10, MaxLevel: 2},
		},
		Inventory: []state.InventoryItem{
			{InstanceID: "inv-sword-1", TemplateID: "qinggang_sword", Name: "青鋼劍", Quantity: 1, Type: "sword", Slot: state.SlotWeapon, Equipped: true, Value: value(120)},
			{InstanceID: "inv-robe-1", TemplateID: "cotton_robe", Name: "粗布衣", Quantity: 1, Type: "armor", Slot: state.SlotBody, Equipped: true, Value: value(15)},
			{InstanceID: "inv-saber-1", TemplateID: "willow_saber", Name: "柳葉刀", Quantity: 1, Type: "saber", Slot: state.SlotWeapon, Value: value(90)},
			{InstanceID: "inv-salve-1", TemplateID: "golden_salve", Name: "金創藥", Quantity: 3, Type: "medicine", Value: value(20)},
			{InstanceID: "inv-silver-1", TemplateID: "silver", Name: "碎銀", Quantity: 10, Type: "misc", Value: value(1)},
		},
		Location: source.LocationData{
			Name:        "西湖畔",
			Description: "湖光山色，遊人如織，岸邊茶館傳來說書聲。",
			Path:        location,
			Neighbors:   []string{"杭州城", "靈隱寺", "錢塘江口"},
		},
		Round: state.RoundSnapshot{
			Round:        0,
			EventTitle:   "初入江湖",
			Atmosphere:   []string{"寧靜", "微風"},
			Weather:      "晴",
			Location:     slices.Clone(location),
			PlayerStatus: "初出茅廬，精神飽滿",
			NPCs: []state.NPCRecord{
				{Name: "說書先生", Status: "在茶館說書", Friendliness: state.FriendlinessNeutral},
				{Name: "賣藝少女", Status: "在湖邊賣藝", Friendliness: state.FriendlinessFriendly},
			},
			Quest:      "尋訪師門下落",
			Thought:    "師父臨別時的話，究竟是什麼意思？",
			Clue:       "說書先生似乎知道些什麼。",
			TimeOfDay:  state.TimesOfDay[0],
			Internal:   10,
			External:   10,
			Lightness:  10,
			Morality:   0,
			Stamina:    100,
			Era:        "成化",
			Year:       1,
			Month:      1,
			Day:        1,
			Suggestion: "不妨先到茶館聽聽說書，打聽消息。",
		},
	}
	b.syncInventory()
	return b
}
