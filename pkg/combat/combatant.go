package combat

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jwebster45206/d20"
)

// armor class handed to every d20 actor; hits are resolved server-side
const baseAC = 10

// Technique is a martial skill a combatant knows.
type Technique struct {
	Name           string `json:"name"`
	Strategy       string `json:"strategy"`                 // strategy tag this technique belongs to
	BaseCost       int    `json:"baseCost"`                 // mp per intensity level
	MaxLevel       int    `json:"maxLevel"`                 // intensity cap, at least 1
	RequiredWeapon string `json:"requiredWeapon,omitempty"` // weapon type tag, "" for none
	Description    string `json:"description,omitempty"`
}

// LevelCap returns the highest intensity the technique allows.
func (t Technique) LevelCap() int {
	return max(t.MaxLevel, 1)
}

// Cost returns the resource cost at the given intensity.
func (t Technique) Cost(level int) int {
	return t.BaseCost * level
}

// UsableWith reports whether the technique can be used with the equipped
// weapon type ("" when bare-handed).
func (t Technique) UsableWith(weapon string) bool {
	return t.RequiredWeapon == "" || t.RequiredWeapon == weapon
}

// CombatantSpec is the serializable form of a combatant as sources send it.
type CombatantSpec struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	HP         int         `json:"hp"`
	MaxHP      int         `json:"maxHp"`
	MP         int         `json:"mp"`
	MaxMP      int         `json:"maxMp"`
	Techniques []Technique `json:"techniques,omitempty"`
}

// Combatant is the runtime participant; hit points live on a d20.Actor.
type Combatant struct {
	Spec  *CombatantSpec
	Actor *d20.Actor
}

// NewCombatant builds a combatant from its spec.
func NewCombatant(spec *CombatantSpec) (*Combatant, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("combatant id is required")
	}

	maxHP := max(spec.MaxHP, spec.HP, 1)
	actor, err := d20.NewActor(spec.ID).
		WithHP(maxHP).
		WithAC(baseAC).
		WithAttributes(map[string]int{
			"mp":     spec.MP,
			"max_mp": spec.MaxMP,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	if spec.HP != maxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &Combatant{Spec: spec, Actor: actor}, nil
}

// update moves the actor to the values in spec.
func (c *Combatant) update(spec *CombatantSpec) error {
	maxHP := max(spec.MaxHP, spec.HP, 1)
	if err := c.Actor.SetMaxHP(maxHP); err != nil {
		return fmt.Errorf("failed to set max HP: %w", err)
	}
	if err := c.Actor.SetHP(max(spec.HP, 0)); err != nil {
		return fmt.Errorf("failed to set HP: %w", err)
	}
	c.Actor.SetAttribute("mp", spec.MP)
	c.Actor.SetAttribute("max_mp", spec.MaxMP)

	next := *spec
	next.Techniques = slices.Clone(spec.Techniques)
	c.Spec = &next
	return nil
}

// Alive reports whether the combatant can still act or be targeted.
func (c *Combatant) Alive() bool {
	return c != nil && c.Spec.HP > 0 && c.Actor.HP() > 0
}

// HP returns current hit points.
func (c *Combatant) HP() int {
	if c.Spec.HP <= 0 {
		return 0
	}
	return c.Actor.HP()
}

// MP returns the current resource pool.
func (c *Combatant) MP() int {
	if mp, ok := c.Actor.Attribute("mp"); ok {
		return mp
	}
	return c.Spec.MP
}

// Technique looks up a known technique by name.
func (c *Combatant) Technique(name string) (Technique, bool) {
	for _, t := range c.Spec.Techniques {
		if t.Name == name {
			return t, true
		}
	}
	return Technique{}, false
}

// MarshalJSON writes the combatant back in spec form with live values.
func (c *Combatant) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	out := *c.Spec
	out.HP = c.HP()
	out.MP = c.MP()
	return json.Marshal(out)
}

// UnmarshalJSON reads a spec and rebuilds the actor.
func (c *Combatant) UnmarshalJSON(data []byte) error {
	var spec CombatantSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal combatant: %w", err)
	}
	built, err := NewCombatant(&spec)
	if err != nil {
		return err
	}
	*c = *built
	return nil
}
