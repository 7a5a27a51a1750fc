package combat

import (
	"errors"
	"slices"
)

// Strategy tags.
const (
	StrategyAttack  = "attack"
	StrategyHeal    = "heal"
	StrategySupport = "support"
	StrategyDefend  = "defend"
	StrategyEvade   = "evade"
)

// Phase is where the composer stands in building one action.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStrategy
	PhaseReady
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStrategy:
		return "strategy"
	case PhaseReady:
		return "ready"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Local rejections. None of these reach the network.
var (
	ErrNoStrategy           = errors.New("choose a strategy first")
	ErrNoValidTargets       = errors.New("no valid targets for this strategy")
	ErrNoTarget             = errors.New("choose a target")
	ErrInvalidTarget        = errors.New("target is not valid for this strategy")
	ErrTargetFixed          = errors.New("this strategy always targets yourself")
	ErrUnknownTechnique     = errors.New("technique is not known")
	ErrTechniqueStrategy    = errors.New("technique does not belong to the chosen strategy")
	ErrWeaponMismatch       = errors.New("technique requires a different weapon")
	ErrNoTechnique          = errors.New("choose a technique before setting intensity")
	ErrIntensityRange       = errors.New("intensity is outside the technique's range")
	ErrInsufficientResource = errors.New("not enough inner energy for this intensity")
	ErrAlreadySubmitted     = errors.New("action already submitted for this turn")
)

// Intent is a validated combat action. It is a value; copies cannot alter
// what was submitted.
type Intent struct {
	Strategy  string `json:"strategy"`
	Technique string `json:"technique,omitempty"`
	Intensity int    `json:"powerLevel"`
	TargetID  string `json:"targetId"`
	ModelHint string `json:"aiModel,omitempty"`
	Turn      int    `json:"turn"`
}

// TechniqueOption is a known technique annotated for display.
type TechniqueOption struct {
	Technique
	Usable   bool
	Selected bool
}

// Composer collects strategy, target, technique and intensity for the
// player's next combat action.
type Composer struct {
	session   *Session
	weapon    string
	modelHint string

	strategy  string
	technique *Technique
	intensity int
	targetID  string
	targets   []string
	submitted *Intent
}

// NewComposer creates a composer for the given fight. weapon is the type tag
// of the player's equipped weapon ("" when bare-handed).
func NewComposer(session *Session, weapon, modelHint string) *Composer {
	return &Composer{session: session, weapon: weapon, modelHint: modelHint}
}

// Phase returns the current phase.
func (c *Composer) Phase() Phase {
	switch {
	case c.submitted != nil:
		return PhaseSubmitted
	case c.strategy == "":
		return PhaseIdle
	case c.Blocker() == nil:
		return PhaseReady
	default:
		return PhaseStrategy
	}
}

// Session returns the fight this composer works against.
func (c *Composer) Session() *Session { return c.session }

func (c *Composer) Strategy() string { return c.strategy }

func (c *Composer) Target() string { return c.targetID }

func (c *Composer) Intensity() int { return c.intensity }

// Technique returns the selected technique, if any.
func (c *Composer) Technique() (Technique, bool) {
	if c.technique == nil {
		return Technique{}, false
	}
	return *c.technique, true
}

// SelectStrategy sets the strategy, clears technique and intensity, and
// re-derives the legal targets.
func (c *Composer) SelectStrategy(tag string) error {
	if c.submitted != nil {
		return ErrAlreadySubmitted
	}
	if tag == "" {
		return ErrNoStrategy
	}
	c.strategy = tag
	c.technique = nil
	c.intensity = 0
	c.targets = c.deriveTargets(tag)

	switch {
	case selfOnly(tag):
		c.targetID = c.session.Player.Spec.ID
	case !slices.Contains(c.targets, c.targetID):
		c.targetID = ""
	}
	return nil
}

// SelectTarget picks a target from the legal set.
func (c *Composer) SelectTarget(id string) error {
	if c.submitted != nil {
		return ErrAlreadySubmitted
	}
	if c.strategy == "" {
		return ErrNoStrategy
	}
	if selfOnly(c.strategy) {
		if id == c.session.Player.Spec.ID {
			return nil
		}
		return ErrTargetFixed
	}
	if len(c.targets) == 0 {
		return ErrNoValidTargets
	}
	if !slices.Contains(c.targets, id) {
		return ErrInvalidTarget
	}
	c.targetID = id
	return nil
}

// SelectTechnique toggles a technique. Choosing the selected technique again
// falls back to the costless basic action.
func (c *Composer) SelectTechnique(name string) error {
	if c.submitted != nil {
		return ErrAlreadySubmitted
	}
	if c.strategy == "" {
		return ErrNoStrategy
	}
	if c.technique != nil && c.technique.Name == name {
		c.technique = nil
		c.intensity = 0
		return nil
	}
	t, ok := c.session.Player.Technique(name)
	if !ok {
		return ErrUnknownTechnique
	}
	if t.Strategy != c.strategy {
		return ErrTechniqueStrategy
	}
	if !t.UsableWith(c.weapon) {
		return ErrWeaponMismatch
	}
	c.technique = &t
	c.intensity = 1
	return nil
}

// SetIntensity sets the intensity of the selected technique.
func (c *Composer) SetIntensity(level int) error {
	if c.submitted != nil {
		return ErrAlreadySubmitted
	}
	if c.technique == nil {
		return ErrNoTechnique
	}
	if level < 1 || level > c.technique.LevelCap() {
		return ErrIntensityRange
	}
	c.intensity = level
	return nil
}

// Cost is the resource cost of the current selection; 0 for a basic action.
func (c *Composer) Cost() int {
	if c.technique == nil {
		return 0
	}
	return c.technique.Cost(c.intensity)
}

// Affordable reports whether the player's pool covers Cost.
func (c *Composer) Affordable() bool {
	return c.Cost() <= c.session.Player.MP()
}

// LegalTargets returns the participants the current strategy may target.
func (c *Composer) LegalTargets() []*Combatant {
	out := make([]*Combatant, 0, len(c.targets))
	for _, id := range c.targets {
		if p := c.session.Find(id); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Techniques lists the player's techniques for the current strategy.
func (c *Composer) Techniques() []TechniqueOption {
	var out []TechniqueOption
	for _, t := range c.session.Player.Spec.Techniques {
		if c.strategy != "" && t.Strategy != c.strategy {
			continue
		}
		out = append(out, TechniqueOption{
			Technique: t,
			Usable:    t.UsableWith(c.weapon),
			Selected:  c.technique != nil && c.technique.Name == t.Name,
		})
	}
	return out
}

// Blocker returns why the selection cannot be confirmed, or nil.
func (c *Composer) Blocker() error {
	if c.submitted != nil {
		return ErrAlreadySubmitted
	}
	if c.strategy == "" {
		return ErrNoStrategy
	}
	if !selfOnly(c.strategy) {
		if len(c.targets) == 0 {
			return ErrNoValidTargets
		}
		if !slices.Contains(c.targets, c.targetID) {
			return ErrNoTarget
		}
	}
	if !c.Affordable() {
		return ErrInsufficientResource
	}
	return nil
}

// CanConfirm reports whether Confirm would succeed.
func (c *Composer) CanConfirm() bool {
	return c.Blocker() == nil
}

// Confirm freezes the selection into an Intent. The composer keeps its
// selection until Reset so an in-flight turn can still be displayed.
func (c *Composer) Confirm() (Intent, error) {
	if err := c.Blocker(); err != nil {
		return Intent{}, err
	}
	intent := Intent{
		Strategy:  c.strategy,
		Intensity: 1,
		TargetID:  c.targetID,
		ModelHint: c.modelHint,
		Turn:      c.session.Turn,
	}
	if c.technique != nil {
		intent.Technique = c.technique.Name
		intent.Intensity = c.intensity
	}
	c.submitted = &intent
	return intent, nil
}

// Submitted returns the confirmed intent, if any.
func (c *Composer) Submitted() (Intent, bool) {
	if c.submitted == nil {
		return Intent{}, false
	}
	return *c.submitted, true
}

// Retract withdraws a confirmed intent that never reached the source. The
// selection is kept so the player can confirm again.
func (c *Composer) Retract() {
	c.submitted = nil
}

// Reset clears every selection and points the composer at an updated fight.
// A nil session keeps the current one.
func (c *Composer) Reset(session *Session) {
	if session != nil {
		c.session = session
	}
	c.strategy = ""
	c.technique = nil
	c.intensity = 0
	c.targetID = ""
	c.targets = nil
	c.submitted = nil
}

// SetWeapon updates the equipped weapon type. A selected technique the new
// weapon cannot use is dropped back to the basic action.
func (c *Composer) SetWeapon(weapon string) {
	c.weapon = weapon
	if c.technique != nil && !c.technique.UsableWith(weapon) {
		c.technique = nil
		c.intensity = 0
	}
}

// Weapon returns the equipped weapon type tag.
func (c *Composer) Weapon() string { return c.weapon }

// SetModelHint changes the routing hint used by later intents.
func (c *Composer) SetModelHint(hint string) {
	c.modelHint = hint
}

func (c *Composer) deriveTargets(strategy string) []string {
	var ids []string
	switch strategy {
	case StrategyAttack:
		for _, e := range c.session.LivingEnemies() {
			ids = append(ids, e.Spec.ID)
		}
	case StrategyHeal, StrategySupport:
		ids = append(ids, c.session.Player.Spec.ID)
		for _, a := range c.session.LivingAllies() {
			ids = append(ids, a.Spec.ID)
		}
	case StrategyDefend, StrategyEvade:
		ids = append(ids, c.session.Player.Spec.ID)
	}
	return ids
}

func selfOnly(strategy string) bool {
	return strategy == StrategyDefend || strategy == StrategyEvade
}
