// Package session is the client-side controller for one play session. It
// gates requests so only one is in flight, merges every source response into
// the snapshot store, drives the combat composer, and turns failures into
// narrative-log notices.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/wuxia-session/internal/logger"
	"github.com/jwebster45206/wuxia-session/pkg/chat"
	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

// Options configures a Session. Zero values are usable.
type Options struct {
	DefaultModel      string
	AuthRedirectDelay time.Duration
	TipInterval       time.Duration
	Tips              []string

	// OnTip is called with a loading tip while a request is in flight.
	OnTip func(string)

	// OnAuthExpired is called once, AuthRedirectDelay after the source
	// reports the credential is no longer valid.
	OnAuthExpired func()

	Logger *slog.Logger
}

// Session is one player's connection to a game source.
type Session struct {
	ID string

	src      source.DataSource
	hydrator *state.Hydrator
	store    *Store
	log      *chat.Log
	logger   *slog.Logger
	opts     Options

	inFlight atomic.Bool

	mu        sync.Mutex // guards the fields below
	model     string
	fight     *combat.Session
	composer  *combat.Composer
	authTimer *time.Timer
}

// New creates a session over src. Call Start before anything else.
func New(src source.DataSource, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Tips == nil {
		opts.Tips = DefaultTips
	}
	id := uuid.NewString()
	log := logger.WithSessionID(opts.Logger, id)
	return &Session{
		ID:       id,
		src:      src,
		hydrator: state.NewHydrator(log),
		store:    &Store{},
		log:      chat.NewLog(0),
		logger:   log,
		opts:     opts,
		model:    opts.DefaultModel,
	}
}

// Store exposes the read side of the snapshot store.
func (s *Session) Store() *Store { return s.store }

// Log exposes the narrative log.
func (s *Session) Log() *chat.Log { return s.log }

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool { return s.inFlight.Load() }

// Model returns the model hint sent with the next request.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel changes the model hint; "" restores the default.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if model == "" {
		model = s.opts.DefaultModel
	}
	s.model = model
	if s.composer != nil {
		s.composer.SetModelHint(model)
	}
}

// Close stops any pending auth redirect.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authTimer != nil {
		s.authTimer.Stop()
		s.authTimer = nil
	}
}

// begin claims the in-flight flag. The returned func releases it and must be
// deferred by the caller.
func (s *Session) begin() (func(), error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRequestInFlight
	}
	tips := startTips(s.opts.Tips, s.opts.TipInterval, s.opts.OnTip)
	return func() {
		tips.stop()
		s.inFlight.Store(false)
	}, nil
}

// Start loads the latest round from the source and resets local state.
func (s *Session) Start(ctx context.Context) error {
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	latest, err := s.src.FetchLatestRound(ctx)
	if err == nil && (latest == nil || latest.Round == nil) {
		err = fmt.Errorf("missing roundData: %w", source.ErrProtocolShape)
	}
	if err != nil {
		return s.fail("start", err)
	}

	s.mu.Lock()
	s.fight, s.composer = nil, nil
	s.mu.Unlock()
	s.store.reset(latest)

	snap := s.store.Snapshot()
	if latest.Prequel != "" {
		s.log.Append(chat.RoleNarrator, latest.Prequel, snap.Round)
	}
	s.logger.Info("Session started", "round", snap.Round, "location", snap.CurrentLocation())
	return nil
}

// SubmitAction sends one free-text action.
func (s *Session) SubmitAction(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	return s.interact(ctx, text, text)
}

// EnterDialogue starts talking to an NPC present in the snapshot.
func (s *Session) EnterDialogue(npc string) error {
	snap := s.store.Snapshot()
	if snap == nil {
		return ErrNotStarted
	}
	if s.store.InCombat() {
		return ErrInCombat
	}
	if _, ok := snap.NPC(npc); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, npc)
	}
	s.store.setDialogue(npc)
	return nil
}

// LeaveDialogue ends the current conversation.
func (s *Session) LeaveDialogue() {
	s.store.setDialogue("")
}

// Chat says a line to the NPC the player is talking to. It travels through
// the same interact call as any action.
func (s *Session) Chat(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return ErrEmptyInput
	}
	npc, ok := s.store.InDialogue()
	if !ok {
		return ErrNotInDialogue
	}
	return s.interact(ctx, fmt.Sprintf("對%s說：「%s」", npc, line), line)
}

func (s *Session) interact(ctx context.Context, action, shown string) error {
	snap, err := s.ready(false)
	if err != nil {
		return err
	}
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	s.log.Append(chat.RolePlayer, shown, snap.Round)
	resp, err := s.src.SubmitAction(ctx, source.ActionRequest{
		Action: action,
		Round:  snap.Round,
		Model:  s.Model(),
	})
	if err != nil {
		return s.fail("submit action", err)
	}
	return s.applyAction(ctx, "submit action", resp)
}

// Cultivate runs times cultivation sessions in one request.
func (s *Session) Cultivate(ctx context.Context, times int) error {
	if _, err := s.ready(false); err != nil {
		return err
	}
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	resp, err := s.src.StartCultivation(ctx, times)
	if err != nil {
		return s.fail("cultivate", err)
	}
	return s.applyAction(ctx, "cultivate", resp)
}

// ForceSuicide ends the character's life.
func (s *Session) ForceSuicide(ctx context.Context) error {
	if _, err := s.ready(false); err != nil {
		return err
	}
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	resp, err := s.src.ForceSuicide(ctx)
	if err != nil {
		return s.fail("force suicide", err)
	}
	return s.applyAction(ctx, "force suicide", resp)
}

func (s *Session) Equip(ctx context.Context, instanceID string) error {
	return s.editInventory(ctx, "equip", instanceID, s.src.EquipItem)
}

func (s *Session) Unequip(ctx context.Context, instanceID string) error {
	return s.editInventory(ctx, "unequip", instanceID, s.src.UnequipItem)
}

func (s *Session) Drop(ctx context.Context, instanceID string) error {
	return s.editInventory(ctx, "drop", instanceID, s.src.DropItem)
}

func (s *Session) editInventory(ctx context.Context, op, instanceID string, call func(context.Context, string) (*source.InventoryResponse, error)) error {
	snap, err := s.ready(true)
	if err != nil {
		return err
	}
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	resp, err := call(ctx, instanceID)
	if err == nil && resp == nil {
		err = fmt.Errorf("empty response: %w", source.ErrProtocolShape)
	}
	if err != nil {
		return s.fail(op, err)
	}
	if !resp.Success {
		s.log.Append(chat.RoleSystem, resp.Message, snap.Round)
		return fmt.Errorf("%s: %w: %s", op, ErrRejected, resp.Message)
	}

	// same-round refresh; equal rounds are accepted by the hydrator
	items := resp.Inventory
	next := s.store.hydrate(s.hydrator, &state.RoundUpdate{Round: &snap.Round, Inventory: &items})
	s.mu.Lock()
	if s.composer != nil {
		s.composer.SetWeapon(state.EquippedWeapon(next.Inventory))
	}
	s.mu.Unlock()
	s.log.Append(chat.RoleSystem, resp.Message, snap.Round)
	s.logger.Debug("Inventory updated", "op", op, "item", instanceID, "bulk", resp.BulkScore)
	return nil
}

// ready checks the session can take a request. Inventory edits are allowed
// during combat; nothing is allowed once the character is dead.
func (s *Session) ready(allowInCombat bool) (*state.RoundSnapshot, error) {
	snap := s.store.Snapshot()
	if snap == nil {
		return nil, ErrNotStarted
	}
	if snap.IsDead {
		return nil, ErrCharacterDead
	}
	if !allowInCombat && s.store.InCombat() {
		return nil, ErrInCombat
	}
	return snap, nil
}

// applyAction merges an action-shaped response and starts combat when the
// source says one began. A malformed combat roster rejects the whole
// response before anything is merged.
func (s *Session) applyAction(ctx context.Context, op string, resp *source.ActionResponse) error {
	if resp == nil || resp.Round == nil {
		return s.fail(op, fmt.Errorf("missing roundData: %w", source.ErrProtocolShape))
	}

	var fight *combat.Session
	if resp.CombatInfo != nil {
		var err error
		if fight, err = combat.NewSession(resp.CombatInfo); err != nil {
			return s.fail(op, fmt.Errorf("combat info: %w: %w", source.ErrProtocolShape, err))
		}
	}

	snap := s.merge(ctx, resp.Round)
	s.store.setLocation(resp.Location)
	s.log.Append(chat.RoleNarrator, resp.Story, snap.Round)
	if fight != nil {
		s.startCombat(fight, snap)
	}
	if snap.IsDead {
		s.log.Append(chat.RoleSystem, "你的角色已經死亡。", snap.Round)
	}
	return nil
}

// merge hydrates update into the store. An update without inventory first
// refreshes the inventory baseline from the source; a failed refresh keeps
// the local copy.
func (s *Session) merge(ctx context.Context, update *state.RoundUpdate) *state.RoundSnapshot {
	if update.Inventory == nil {
		items, err := s.src.FetchInventory(ctx)
		if err != nil {
			logger.WithError(s.logger, err).Warn("Failed to refresh inventory before merge")
		} else {
			refreshed := *update
			refreshed.Inventory = &items
			update = &refreshed
		}
	}
	snap := s.store.hydrate(s.hydrator, update)
	s.logger.Debug("Merged round update", "round", snap.Round)
	return snap
}

// fail records err as a system notice, applies its side effects and returns
// it wrapped with op.
func (s *Session) fail(op string, err error) error {
	round := 0
	if snap := s.store.Snapshot(); snap != nil {
		round = snap.Round
	}
	s.log.Append(chat.RoleSystem, notice(err), round)
	logger.WithError(s.logger, err).Warn("Request failed", "op", op)

	switch {
	case errors.Is(err, source.ErrUnauthorized):
		s.scheduleAuthRedirect()
	case IsModelFailure(err):
		s.SetModel("")
		s.logger.Info("Reset model to default", "model", s.opts.DefaultModel)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Session) scheduleAuthRedirect() {
	if s.opts.OnAuthExpired == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authTimer != nil {
		return
	}
	s.authTimer = time.AfterFunc(s.opts.AuthRedirectDelay, s.opts.OnAuthExpired)
}
