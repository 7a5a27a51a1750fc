package session

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/wuxia-session/pkg/chat"
	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

// Participant is a read-only view of one combatant.
type Participant struct {
	ID    string
	Name  string
	HP    int
	MaxHP int
	MP    int
	MaxMP int
	Alive bool
}

// CombatView is a copy of the fight and composer state for rendering.
type CombatView struct {
	Turn       int
	Phase      combat.Phase
	Strategy   string
	Target     string
	Technique  string
	Intensity  int
	Cost       int
	Affordable bool
	Blocker    error
	Player     Participant
	Allies     []Participant
	Enemies    []Participant
	Targets    []string
	Techniques []combat.TechniqueOption
	Changes    []combat.Change
}

// Combat returns a view of the current fight, if any.
func (s *Session) Combat() (CombatView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fight == nil || s.composer == nil {
		return CombatView{}, false
	}
	c := s.composer
	v := CombatView{
		Turn:       s.fight.Turn,
		Phase:      c.Phase(),
		Strategy:   c.Strategy(),
		Target:     c.Target(),
		Intensity:  c.Intensity(),
		Cost:       c.Cost(),
		Affordable: c.Affordable(),
		Blocker:    c.Blocker(),
		Player:     participant(s.fight.Player),
		Techniques: c.Techniques(),
		Changes:    slices.Clone(s.fight.Changes),
	}
	if t, ok := c.Technique(); ok {
		v.Technique = t.Name
	}
	for _, a := range s.fight.Allies {
		v.Allies = append(v.Allies, participant(a))
	}
	for _, e := range s.fight.Enemies {
		v.Enemies = append(v.Enemies, participant(e))
	}
	for _, t := range c.LegalTargets() {
		v.Targets = append(v.Targets, t.Spec.ID)
	}
	return v, true
}

func participant(c *combat.Combatant) Participant {
	return Participant{
		ID:    c.Spec.ID,
		Name:  c.Spec.Name,
		HP:    c.HP(),
		MaxHP: c.Actor.MaxHP(),
		MP:    c.MP(),
		MaxMP: c.Spec.MaxMP,
		Alive: c.Alive(),
	}
}

// Dispatch applies a composer command. ConfirmCombatAction submits the
// confirmed intent to the source.
func (s *Session) Dispatch(ctx context.Context, cmd combat.Command) error {
	if _, ok := cmd.(combat.ConfirmCombatAction); ok {
		return s.submitCombat(ctx)
	}

	s.mu.Lock()
	composer := s.composer
	var err error
	if composer == nil {
		err = ErrNotInCombat
	} else {
		_, err = composer.Dispatch(cmd)
		if reset, ok := cmd.(combat.ResetComposer); ok && reset.Session != nil {
			s.fight = reset.Session
		}
	}
	s.mu.Unlock()

	if err != nil && IsLocal(err) {
		s.logger.Debug("Composer rejected command", "command", fmt.Sprintf("%T", cmd), "reason", err)
	}
	return err
}

func (s *Session) submitCombat(ctx context.Context) error {
	if !s.store.InCombat() {
		return ErrNotInCombat
	}
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	s.mu.Lock()
	composer := s.composer
	if composer == nil {
		s.mu.Unlock()
		return ErrNotInCombat
	}
	composer.SetModelHint(s.model)
	intent, err := composer.Confirm()
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug("Composer rejected confirm", "reason", err)
		return err
	}

	resp, err := s.src.SubmitCombatAction(ctx, intent)
	if err == nil {
		err = checkCombatResponse(resp)
	}
	if err != nil {
		s.mu.Lock()
		if s.composer == composer {
			composer.Retract()
		}
		s.mu.Unlock()
		return s.fail("combat action", err)
	}

	if resp.Status == combat.StatusEnd {
		s.endCombat(ctx, resp.Narrative, resp.NewRound)
		return nil
	}

	s.mu.Lock()
	if s.fight == nil {
		s.mu.Unlock()
		return ErrNotInCombat
	}
	changes, err := s.fight.Apply(resp.Combat)
	turn := s.fight.Turn
	if err != nil {
		if s.composer == composer {
			composer.Retract()
		}
		s.mu.Unlock()
		return s.fail("combat action", fmt.Errorf("combat state: %w: %w", source.ErrProtocolShape, err))
	}
	composer.Reset(nil)
	s.mu.Unlock()

	round := s.round()
	s.log.Append(chat.RoleNarrator, resp.Narrative, round)
	if summary := describeChanges(changes); summary != "" {
		s.log.Append(chat.RoleSystem, summary, round)
	}
	s.logger.Debug("Combat turn resolved", "turn", turn, "changes", len(changes))
	return nil
}

// describeChanges renders hit point movement as "余滄海 -15 (75/90)".
func describeChanges(changes []combat.Change) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s %+d (%d/%d)", c.Name, c.Delta, c.HP, c.MaxHP))
	}
	return strings.Join(parts, "，")
}

func checkCombatResponse(resp *source.CombatResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("empty response: %w", source.ErrProtocolShape)
	case resp.Status == combat.StatusEnd:
		return nil
	case resp.Status != combat.StatusOngoing:
		return fmt.Errorf("unknown status %q: %w", resp.Status, source.ErrProtocolShape)
	case resp.Combat == nil:
		return fmt.Errorf("missing combatState: %w", source.ErrProtocolShape)
	}
	return nil
}

// Surrender asks to yield the current fight.
func (s *Session) Surrender(ctx context.Context) error {
	if !s.store.InCombat() {
		return ErrNotInCombat
	}
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	resp, err := s.src.SubmitSurrender(ctx)
	if err == nil && resp == nil {
		err = fmt.Errorf("empty response: %w", source.ErrProtocolShape)
	}
	if err != nil {
		return s.fail("surrender", err)
	}

	switch resp.Status {
	case source.SurrenderAccepted:
		s.endCombat(ctx, resp.Narrative, resp.NewRound)
		return nil
	case source.SurrenderRejected:
		round := s.round()
		s.log.Append(chat.RoleNarrator, resp.Narrative, round)
		s.log.Append(chat.RoleSystem, "對方不接受你的投降。", round)
		return nil
	default:
		return s.fail("surrender", fmt.Errorf("unknown status %q: %w", resp.Status, source.ErrProtocolShape))
	}
}

// AbortCombat drops the fight locally without telling the source.
func (s *Session) AbortCombat() {
	s.mu.Lock()
	s.fight, s.composer = nil, nil
	s.mu.Unlock()
	s.store.setCombat(false)
}

func (s *Session) startCombat(fight *combat.Session, snap *state.RoundSnapshot) {
	weapon := state.EquippedWeapon(snap.Inventory)

	s.mu.Lock()
	s.fight = fight
	s.composer = combat.NewComposer(fight, weapon, s.model)
	s.mu.Unlock()
	s.store.setCombat(true)

	s.log.Append(chat.RoleSystem, "戰鬥開始！", snap.Round)
	s.logger.Info("Combat started", "enemies", len(fight.Enemies), "weapon", weapon)
}

// endCombat destroys the fight and composer, then merges the round update
// the source sent with the result.
func (s *Session) endCombat(ctx context.Context, narrative string, newRound *state.RoundUpdate) {
	s.AbortCombat()

	round := s.round()
	s.log.Append(chat.RoleNarrator, narrative, round)
	if newRound != nil {
		round = s.merge(ctx, newRound).Round
	}
	s.log.Append(chat.RoleSystem, "戰鬥結束。", round)
	s.logger.Info("Combat ended", "round", round)
}

func (s *Session) round() int {
	if snap := s.store.Snapshot(); snap != nil {
		return snap.Round
	}
	return 0
}
