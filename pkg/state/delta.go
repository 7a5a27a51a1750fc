package state

// PowerChange holds additive deltas for the three power attributes.
type PowerChange struct {
	Internal  int `json:"internal,omitempty"`
	External  int `json:"external,omitempty"`
	Lightness int `json:"lightness,omitempty"`
}

// RoundUpdate is the partial snapshot a source sends after one turn.
// Nil fields were omitted by the source and leave the previous value alone.
// PowerChange and MoralityChange are deltas; everything else is absolute.
type RoundUpdate struct {
	Round        *int             `json:"round,omitempty"`
	EventTitle   *string          `json:"eventTitle,omitempty"`
	Atmosphere   *[]string        `json:"atmosphere,omitempty"`
	Weather      *string          `json:"weather,omitempty"`
	Location     *[]string        `json:"location,omitempty"`
	PlayerStatus *string          `json:"playerStatus,omitempty"`
	NPCs         []NPCUpdate      `json:"npcs,omitempty"`
	Quest        *string          `json:"quest,omitempty"`
	Thought      *string          `json:"thought,omitempty"`
	Clue         *string          `json:"clue,omitempty"`
	TimeOfDay    *string          `json:"timeOfDay,omitempty"`
	PowerChange  *PowerChange     `json:"powerChange,omitempty"`
	Morality     *int             `json:"moralityChange,omitempty"`
	Stamina      *int             `json:"stamina,omitempty"`
	Era          *string          `json:"era,omitempty"`
	Year         *int             `json:"year,omitempty"`
	Month        *int             `json:"month,omitempty"`
	Day          *int             `json:"day,omitempty"`
	IsDead       *bool            `json:"isDead,omitempty"`
	Inventory    *[]InventoryItem `json:"inventory,omitempty"`
	Suggestion   *string          `json:"suggestion,omitempty"`
}

// IsEmpty reports whether the update carries nothing at all.
func (u *RoundUpdate) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.Round == nil && u.EventTitle == nil && u.Atmosphere == nil &&
		u.Weather == nil && u.Location == nil && u.PlayerStatus == nil &&
		len(u.NPCs) == 0 && u.Quest == nil && u.Thought == nil &&
		u.Clue == nil && u.TimeOfDay == nil && u.PowerChange == nil &&
		u.Morality == nil && u.Stamina == nil && u.Era == nil &&
		u.Year == nil && u.Month == nil && u.Day == nil &&
		u.IsDead == nil && u.Inventory == nil && u.Suggestion == nil
}

// FullUpdate converts a complete snapshot into an update that, hydrated onto
// any earlier snapshot, reproduces it. Power and morality become deltas
// against base.
func FullUpdate(base, next *RoundSnapshot) *RoundUpdate {
	if next == nil {
		return nil
	}
	if base == nil {
		base = &RoundSnapshot{}
	}
	n := next.Clone()
	npcs := make([]NPCUpdate, 0, len(n.NPCs))
	for _, npc := range n.NPCs {
		npcs = append(npcs, NPCUpdate{
			Name:         npc.Name,
			Status:       &npc.Status,
			Friendliness: &npc.Friendliness,
			Deceased:     &npc.Deceased,
			Affinity:     npc.Affinity,
			Trust:        npc.Trust,
		})
	}
	return &RoundUpdate{
		Round:        &n.Round,
		EventTitle:   &n.EventTitle,
		Atmosphere:   &n.Atmosphere,
		Weather:      &n.Weather,
		Location:     &n.Location,
		PlayerStatus: &n.PlayerStatus,
		NPCs:         npcs,
		Quest:        &n.Quest,
		Thought:      &n.Thought,
		Clue:         &n.Clue,
		TimeOfDay:    &n.TimeOfDay,
		PowerChange: &PowerChange{
			Internal:  n.Internal - base.Internal,
			External:  n.External - base.External,
			Lightness: n.Lightness - base.Lightness,
		},
		Morality:   ptr(n.Morality - base.Morality),
		Stamina:    &n.Stamina,
		Era:        &n.Era,
		Year:       &n.Year,
		Month:      &n.Month,
		Day:        &n.Day,
		IsDead:     &n.IsDead,
		Inventory:  &n.Inventory,
		Suggestion: &n.Suggestion,
	}
}

func ptr[T any](v T) *T {
	return &v
}
