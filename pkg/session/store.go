package session

import (
	"slices"
	"sync"

	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

// Store holds the current snapshot and the session mode flags. Readers get
// copies, so a renderer never observes a half-applied update.
type Store struct {
	mu             sync.RWMutex
	snapshot       *state.RoundSnapshot
	location       *source.LocationData
	hasNewBounties bool
	inCombat       bool
	dialogueNPC    string
}

// Loaded reports whether a snapshot has been received.
func (st *Store) Loaded() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snapshot != nil
}

// Snapshot returns a copy of the current snapshot, or nil before Start.
func (st *Store) Snapshot() *state.RoundSnapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snapshot.Clone()
}

// Location returns a copy of the last known location, or nil.
func (st *Store) Location() *source.LocationData {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.location == nil {
		return nil
	}
	loc := *st.location
	loc.Path = slices.Clone(loc.Path)
	loc.Neighbors = slices.Clone(loc.Neighbors)
	return &loc
}

func (st *Store) HasNewBounties() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.hasNewBounties
}

func (st *Store) InCombat() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.inCombat
}

// InDialogue returns the NPC the player is talking to, if any.
func (st *Store) InDialogue() (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.dialogueNPC, st.dialogueNPC != ""
}

func (st *Store) reset(latest *source.LatestRound) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot = latest.Round.Clone()
	st.snapshot.Normalize()
	st.location = latest.Location
	st.hasNewBounties = latest.HasNewBounties
	st.inCombat = false
	st.dialogueNPC = ""
}

// hydrate merges update into the snapshot in one locked step and returns a
// copy of the result.
func (st *Store) hydrate(h *state.Hydrator, update *state.RoundUpdate) *state.RoundSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot = h.Hydrate(st.snapshot, update)
	if name := st.dialogueNPC; name != "" {
		if _, ok := st.snapshot.NPC(name); !ok {
			st.dialogueNPC = ""
		}
	}
	return st.snapshot.Clone()
}

func (st *Store) setLocation(loc *source.LocationData) {
	if loc == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.location = loc
}

func (st *Store) setCombat(on bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.inCombat = on
	if on {
		st.dialogueNPC = ""
	}
}

func (st *Store) setDialogue(npc string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.dialogueNPC = npc
}
