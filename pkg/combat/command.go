package combat

import "fmt"

// Command is one user gesture aimed at the composer.
type Command interface {
	isCommand()
}

type SelectStrategy struct{ Tag string }

type SelectTarget struct{ ID string }

type SelectTechnique struct{ Name string }

type SetIntensity struct{ Level int }

type ConfirmCombatAction struct{}

// ResetComposer clears the selection; a non-nil Session replaces the fight.
type ResetComposer struct{ Session *Session }

func (SelectStrategy) isCommand()      {}
func (SelectTarget) isCommand()        {}
func (SelectTechnique) isCommand()     {}
func (SetIntensity) isCommand()        {}
func (ConfirmCombatAction) isCommand() {}
func (ResetComposer) isCommand()       {}

// Dispatch applies cmd. Only ConfirmCombatAction returns a non-nil intent.
func (c *Composer) Dispatch(cmd Command) (*Intent, error) {
	switch cmd := cmd.(type) {
	case SelectStrategy:
		return nil, c.SelectStrategy(cmd.Tag)
	case SelectTarget:
		return nil, c.SelectTarget(cmd.ID)
	case SelectTechnique:
		return nil, c.SelectTechnique(cmd.Name)
	case SetIntensity:
		return nil, c.SetIntensity(cmd.Level)
	case ConfirmCombatAction:
		intent, err := c.Confirm()
		if err != nil {
			return nil, err
		}
		return &intent, nil
	case ResetComposer:
		c.Reset(cmd.Session)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown composer command %T", cmd)
	}
}
