package state

import (
	"log/slog"
	"slices"
)

// Hydrator merges partial round updates into the previous snapshot.
type Hydrator struct {
	logger *slog.Logger
}

// NewHydrator creates a hydrator. A nil logger discards warnings.
func NewHydrator(logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hydrator{logger: logger}
}

// Hydrate returns the snapshot that results from applying update on top of
// prev. prev is never modified.
//
// Power and morality changes are deltas and are clamped after adding.
// Inventory, when present, replaces the previous inventory outright. NPCs are
// merged by name and deceased NPCs are dropped. Any other present field wins.
// An update whose round is lower than prev's is ignored.
func (h *Hydrator) Hydrate(prev *RoundSnapshot, update *RoundUpdate) *RoundSnapshot {
	var next *RoundSnapshot
	if prev == nil {
		next = &RoundSnapshot{}
	} else {
		next = prev.Clone()
	}
	if update == nil {
		return next
	}

	if update.Round != nil {
		if prev != nil && *update.Round < prev.Round {
			h.logger.Warn("Ignoring out-of-order round update",
				"previous_round", prev.Round,
				"update_round", *update.Round)
			return next
		}
		next.Round = *update.Round
	}

	if pc := update.PowerChange; pc != nil {
		next.Internal += pc.Internal
		next.External += pc.External
		next.Lightness += pc.Lightness
	}
	if update.Morality != nil {
		next.Morality += *update.Morality
	}
	if update.Stamina != nil {
		next.Stamina = *update.Stamina
	}

	if update.Inventory != nil {
		next.Inventory = CloneItems(*update.Inventory)
		if conflicts := EquipConflicts(next.Inventory); len(conflicts) > 0 {
			h.logger.Warn("Inventory has more than one item equipped per slot",
				"round", next.Round,
				"slots", conflicts)
		}
	}

	// NPC list always passes through the merge so stale deceased entries drop.
	next.NPCs = mergeNPCs(next.NPCs, update.NPCs)

	setString(&next.EventTitle, update.EventTitle)
	setString(&next.Weather, update.Weather)
	setString(&next.PlayerStatus, update.PlayerStatus)
	setString(&next.Quest, update.Quest)
	setString(&next.Thought, update.Thought)
	setString(&next.Clue, update.Clue)
	setString(&next.TimeOfDay, update.TimeOfDay)
	setString(&next.Era, update.Era)
	setString(&next.Suggestion, update.Suggestion)
	setInt(&next.Year, update.Year)
	setInt(&next.Month, update.Month)
	setInt(&next.Day, update.Day)
	if update.Atmosphere != nil {
		next.Atmosphere = slices.Clone(*update.Atmosphere)
	}
	if update.Location != nil {
		next.Location = slices.Clone(*update.Location)
	}
	if update.IsDead != nil {
		next.IsDead = *update.IsDead
	}

	next.Normalize()
	return next
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
