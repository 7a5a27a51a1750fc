package state

import "slices"

const (
	MaxPower    = 999
	MinMorality = -100
	MaxMorality = 100
	MaxStamina  = 100
)

// TimesOfDay is the fixed cycle a day advances through, one step per action.
var TimesOfDay = []string{"清晨", "上午", "正午", "午後", "黃昏", "夜晚", "深夜"}

// RoundSnapshot is the authoritative description of the game "now".
type RoundSnapshot struct {
	Round        int             `json:"round"`
	EventTitle   string          `json:"eventTitle,omitempty"`
	Atmosphere   []string        `json:"atmosphere,omitempty"`
	Weather      string          `json:"weather,omitempty"`
	Location     []string        `json:"location,omitempty"` // most specific last
	PlayerStatus string          `json:"playerStatus,omitempty"`
	NPCs         []NPCRecord     `json:"npcs,omitempty"`
	Quest        string          `json:"quest,omitempty"`
	Thought      string          `json:"thought,omitempty"`
	Clue         string          `json:"clue,omitempty"`
	TimeOfDay    string          `json:"timeOfDay,omitempty"`
	Internal     int             `json:"internalPower"`
	External     int             `json:"externalPower"`
	Lightness    int             `json:"lightness"`
	Morality     int             `json:"morality"`
	Stamina      int             `json:"stamina"`
	Era          string          `json:"era,omitempty"`
	Year         int             `json:"year,omitempty"`
	Month        int             `json:"month,omitempty"`
	Day          int             `json:"day,omitempty"`
	IsDead       bool            `json:"isDead,omitempty"`
	Inventory    []InventoryItem `json:"inventory,omitempty"`
	Suggestion   string          `json:"suggestion,omitempty"`
}

// CurrentLocation returns the most specific location name, or "" when unknown.
func (rs *RoundSnapshot) CurrentLocation() string {
	if rs == nil || len(rs.Location) == 0 {
		return ""
	}
	return rs.Location[len(rs.Location)-1]
}

// NPC returns the NPC with the exact name, if present.
func (rs *RoundSnapshot) NPC(name string) (NPCRecord, bool) {
	if rs == nil {
		return NPCRecord{}, false
	}
	for _, npc := range rs.NPCs {
		if npc.Name == name {
			return npc, true
		}
	}
	return NPCRecord{}, false
}

// Clone returns a deep copy. Hydration never shares slices with its input.
func (rs *RoundSnapshot) Clone() *RoundSnapshot {
	if rs == nil {
		return nil
	}
	c := *rs
	c.Atmosphere = slices.Clone(rs.Atmosphere)
	c.Location = slices.Clone(rs.Location)
	c.Inventory = CloneItems(rs.Inventory)
	if rs.NPCs != nil {
		c.NPCs = make([]NPCRecord, len(rs.NPCs))
		for i, npc := range rs.NPCs {
			c.NPCs[i] = npc.clone()
		}
	}
	return &c
}

// Clamp forces every bounded attribute back into its documented range.
func (rs *RoundSnapshot) Clamp() {
	rs.Internal = clamp(rs.Internal, 0, MaxPower)
	rs.External = clamp(rs.External, 0, MaxPower)
	rs.Lightness = clamp(rs.Lightness, 0, MaxPower)
	rs.Morality = clamp(rs.Morality, MinMorality, MaxMorality)
	rs.Stamina = clamp(rs.Stamina, 0, MaxStamina)
	if rs.Round < 0 {
		rs.Round = 0
	}
}

// Normalize clamps the bounded attributes and maps every NPC friendliness
// outside the known categories to neutral.
func (rs *RoundSnapshot) Normalize() {
	rs.Clamp()
	for i := range rs.NPCs {
		rs.NPCs[i].Friendliness = NormalizeFriendliness(rs.NPCs[i].Friendliness)
	}
}

// NextTimeOfDay returns the step after current and whether the cycle wrapped.
// An unknown current value starts the cycle over without wrapping.
func NextTimeOfDay(current string) (string, bool) {
	i := slices.Index(TimesOfDay, current)
	if i < 0 {
		return TimesOfDay[0], false
	}
	if i == len(TimesOfDay)-1 {
		return TimesOfDay[0], true
	}
	return TimesOfDay[i+1], false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
