package combat

import "fmt"

// Turn result statuses.
const (
	StatusOngoing = "ONGOING"
	StatusEnd     = "END"
)

// Setup is the roster payload that starts or updates a fight.
type Setup struct {
	Player  CombatantSpec   `json:"player"`
	Allies  []CombatantSpec `json:"allies,omitempty"`
	Enemies []CombatantSpec `json:"enemies,omitempty"`
	Turn    int             `json:"turn"`
}

// Session is one fight in progress.
type Session struct {
	Player  *Combatant
	Allies  []*Combatant
	Enemies []*Combatant
	Turn    int

	// Changes holds the hit point movement of the last applied turn.
	Changes []Change
}

// Change is how far one participant's hit points moved across a turn.
type Change struct {
	ID    string
	Name  string
	Delta int
	HP    int
	MaxHP int
}

// NewSession builds the runtime rosters from a setup payload.
func NewSession(setup *Setup) (*Session, error) {
	if setup == nil {
		return nil, fmt.Errorf("combat setup cannot be nil")
	}
	player, err := NewCombatant(&setup.Player)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	s := &Session{Player: player, Turn: setup.Turn}
	for i := range setup.Allies {
		c, err := NewCombatant(&setup.Allies[i])
		if err != nil {
			return nil, fmt.Errorf("ally %d: %w", i, err)
		}
		s.Allies = append(s.Allies, c)
	}
	for i := range setup.Enemies {
		c, err := NewCombatant(&setup.Enemies[i])
		if err != nil {
			return nil, fmt.Errorf("enemy %d: %w", i, err)
		}
		s.Enemies = append(s.Enemies, c)
	}
	return s, nil
}

// Apply folds an updated roster into the running fight. Participants already
// in the fight keep their actors and take the new hit points and inner
// energy; ones the update introduces are added, ones it omits are dropped.
// Nothing changes when any entry is invalid.
func (s *Session) Apply(setup *Setup) ([]Change, error) {
	if setup == nil {
		return nil, fmt.Errorf("combat setup cannot be nil")
	}
	if setup.Player.ID != s.Player.Spec.ID {
		return nil, fmt.Errorf("player: id %q does not match %q", setup.Player.ID, s.Player.Spec.ID)
	}
	allies, err := s.stage("ally", setup.Allies)
	if err != nil {
		return nil, err
	}
	enemies, err := s.stage("enemy", setup.Enemies)
	if err != nil {
		return nil, err
	}

	var changes []Change
	record := func(c *Combatant, spec *CombatantSpec) error {
		before := c.HP()
		if err := c.update(spec); err != nil {
			return fmt.Errorf("%s: %w", spec.ID, err)
		}
		if delta := c.HP() - before; delta != 0 {
			changes = append(changes, Change{
				ID: c.Spec.ID, Name: c.Spec.Name, Delta: delta,
				HP: c.HP(), MaxHP: c.Actor.MaxHP(),
			})
		}
		return nil
	}
	if err := record(s.Player, &setup.Player); err != nil {
		return nil, err
	}
	for i, c := range allies {
		if err := record(c, &setup.Allies[i]); err != nil {
			return nil, err
		}
	}
	for i, c := range enemies {
		if err := record(c, &setup.Enemies[i]); err != nil {
			return nil, err
		}
	}

	s.Allies, s.Enemies = allies, enemies
	s.Turn = setup.Turn
	s.Changes = changes
	return changes, nil
}

// stage resolves each spec to its existing combatant, building new ones for
// ids the fight has not seen.
func (s *Session) stage(side string, specs []CombatantSpec) ([]*Combatant, error) {
	out := make([]*Combatant, 0, len(specs))
	for i := range specs {
		spec := specs[i]
		if spec.ID == "" {
			return nil, fmt.Errorf("%s %d: combatant id is required", side, i)
		}
		if c := s.Find(spec.ID); c != nil && c != s.Player {
			out = append(out, c)
			continue
		}
		c, err := NewCombatant(&spec)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", side, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Setup converts the session back into its wire form.
func (s *Session) Setup() *Setup {
	out := &Setup{Turn: s.Turn, Player: liveSpec(s.Player)}
	for _, c := range s.Allies {
		out.Allies = append(out.Allies, liveSpec(c))
	}
	for _, c := range s.Enemies {
		out.Enemies = append(out.Enemies, liveSpec(c))
	}
	return out
}

// Find returns the participant with the given id from any roster.
func (s *Session) Find(id string) *Combatant {
	if s.Player != nil && s.Player.Spec.ID == id {
		return s.Player
	}
	for _, c := range s.Allies {
		if c.Spec.ID == id {
			return c
		}
	}
	for _, c := range s.Enemies {
		if c.Spec.ID == id {
			return c
		}
	}
	return nil
}

// LivingEnemies returns enemies that can still be targeted.
func (s *Session) LivingEnemies() []*Combatant {
	return living(s.Enemies)
}

// LivingAllies returns allies that can still be targeted.
func (s *Session) LivingAllies() []*Combatant {
	return living(s.Allies)
}

// Over reports whether one side has no living participants left.
func (s *Session) Over() bool {
	return !s.Player.Alive() || len(s.LivingEnemies()) == 0
}

func living(cs []*Combatant) []*Combatant {
	var out []*Combatant
	for _, c := range cs {
		if c.Alive() {
			out = append(out, c)
		}
	}
	return out
}

func liveSpec(c *Combatant) CombatantSpec {
	spec := *c.Spec
	spec.HP = c.HP()
	spec.MP = c.MP()
	return spec
}
