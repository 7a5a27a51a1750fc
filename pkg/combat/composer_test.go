package combat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSetup() *Setup {
	return &Setup{
		Turn: 2,
		Player: CombatantSpec{
			ID: "player", Name: "林平之", HP: 80, MaxHP: 100, MP: 30, MaxMP: 60,
			Techniques: []Technique{
				{Name: "獨孤九劍", Strategy: StrategyAttack, BaseCost: 10, MaxLevel: 5, RequiredWeapon: "sword"},
				{Name: "降龍十八掌", Strategy: StrategyAttack, BaseCost: 15, MaxLevel: 3},
				{Name: "五虎斷門刀", Strategy: StrategyAttack, BaseCost: 6, MaxLevel: 3, RequiredWeapon: "saber"},
				{Name: "鐵布衫", Strategy: StrategyDefend, BaseCost: 8, MaxLevel: 4},
				{Name: "療傷篇", Strategy: StrategyHeal, BaseCost: 5, MaxLevel: 2},
			},
		},
		Allies: []CombatantSpec{
			{ID: "ally-1", Name: "儀琳", HP: 40, MaxHP: 50},
			{ID: "ally-2", Name: "曲洋", HP: 0, MaxHP: 70},
		},
		Enemies: []CombatantSpec{
			{ID: "enemy-1", Name: "余滄海", HP: 90, MaxHP: 90},
			{ID: "enemy-2", Name: "青城弟子", HP: 0, MaxHP: 30},
		},
	}
}

func newTestComposer(t *testing.T, weapon string) *Composer {
	t.Helper()
	session, err := NewSession(testSetup())
	require.NoError(t, err)
	return NewComposer(session, weapon, "default-model")
}

func TestComposer_ConfirmLifecycle(t *testing.T) {
	c := newTestComposer(t, "sword")

	assert.False(t, c.CanConfirm(), "no strategy selected")
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.ErrorIs(t, c.Blocker(), ErrNoStrategy)

	require.NoError(t, c.SelectStrategy(StrategyDefend))
	assert.True(t, c.CanConfirm(), "defend needs no target choice")
	assert.Equal(t, "player", c.Target())
	assert.Equal(t, PhaseReady, c.Phase())

	require.NoError(t, c.SelectTechnique("鐵布衫"))
	assert.Equal(t, 1, c.Intensity())
	assert.True(t, c.CanConfirm())

	require.NoError(t, c.SetIntensity(4))
	assert.Equal(t, 32, c.Cost())
	assert.False(t, c.CanConfirm(), "32 exceeds the 30 mp pool")
	assert.ErrorIs(t, c.Blocker(), ErrInsufficientResource)

	require.NoError(t, c.SetIntensity(3))
	assert.True(t, c.CanConfirm())

	intent, err := c.Confirm()
	require.NoError(t, err)
	assert.Equal(t, Intent{
		Strategy:  StrategyDefend,
		Technique: "鐵布衫",
		Intensity: 3,
		TargetID:  "player",
		ModelHint: "default-model",
		Turn:      2,
	}, intent)
	assert.Equal(t, PhaseSubmitted, c.Phase())

	// selection survives until the caller resets
	submitted, ok := c.Submitted()
	require.True(t, ok)
	assert.Equal(t, intent, submitted)
	assert.ErrorIs(t, c.SelectStrategy(StrategyAttack), ErrAlreadySubmitted)
	_, err = c.Confirm()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	c.Retract()
	assert.Equal(t, PhaseReady, c.Phase())
	assert.Equal(t, "鐵布衫", intent.Technique)
	_, err = c.Confirm()
	require.NoError(t, err)

	c.Reset(nil)
	assert.Equal(t, PhaseIdle, c.Phase())
	_, ok = c.Submitted()
	assert.False(t, ok)
}

func TestComposer_TargetPolicy(t *testing.T) {
	ids := func(cs []*Combatant) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Spec.ID)
		}
		return out
	}

	tests := []struct {
		strategy string
		want     []string
	}{
		{StrategyAttack, []string{"enemy-1"}},
		{StrategyHeal, []string{"player", "ally-1"}},
		{StrategySupport, []string{"player", "ally-1"}},
		{StrategyDefend, []string{"player"}},
		{StrategyEvade, []string{"player"}},
		{"flee", nil},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			c := newTestComposer(t, "")
			require.NoError(t, c.SelectStrategy(tt.strategy))
			assert.Equal(t, tt.want, ids(c.LegalTargets()))
		})
	}

	t.Run("attack requires a chosen living enemy", func(t *testing.T) {
		c := newTestComposer(t, "")
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		assert.ErrorIs(t, c.Blocker(), ErrNoTarget)
		assert.ErrorIs(t, c.SelectTarget("enemy-2"), ErrInvalidTarget)
		assert.ErrorIs(t, c.SelectTarget("player"), ErrInvalidTarget)
		require.NoError(t, c.SelectTarget("enemy-1"))
		assert.True(t, c.CanConfirm())
	})

	t.Run("unknown strategy has no targets", func(t *testing.T) {
		c := newTestComposer(t, "")
		require.NoError(t, c.SelectStrategy("flee"))
		assert.False(t, c.CanConfirm())
		assert.ErrorIs(t, c.Blocker(), ErrNoValidTargets)
		assert.ErrorIs(t, c.SelectTarget("player"), ErrNoValidTargets)
	})

	t.Run("self-only target is fixed", func(t *testing.T) {
		c := newTestComposer(t, "")
		require.NoError(t, c.SelectStrategy(StrategyEvade))
		assert.ErrorIs(t, c.SelectTarget("ally-1"), ErrTargetFixed)
		assert.NoError(t, c.SelectTarget("player"))
	})

	t.Run("switching strategy keeps a still-legal target", func(t *testing.T) {
		c := newTestComposer(t, "")
		require.NoError(t, c.SelectStrategy(StrategyHeal))
		require.NoError(t, c.SelectTarget("ally-1"))
		require.NoError(t, c.SelectStrategy(StrategySupport))
		assert.Equal(t, "ally-1", c.Target())
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		assert.Equal(t, "", c.Target())
	})

	t.Run("target before strategy is rejected", func(t *testing.T) {
		c := newTestComposer(t, "")
		assert.ErrorIs(t, c.SelectTarget("enemy-1"), ErrNoStrategy)
	})
}

func TestComposer_Techniques(t *testing.T) {
	t.Run("toggle falls back to basic action", func(t *testing.T) {
		c := newTestComposer(t, "sword")
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		require.NoError(t, c.SelectTechnique("獨孤九劍"))
		assert.Equal(t, 10, c.Cost())

		require.NoError(t, c.SelectTechnique("獨孤九劍"))
		_, selected := c.Technique()
		assert.False(t, selected)
		assert.Equal(t, 0, c.Cost())
		require.NoError(t, c.SelectTarget("enemy-1"))

		intent, err := c.Confirm()
		require.NoError(t, err)
		assert.Equal(t, "", intent.Technique)
		assert.Equal(t, 1, intent.Intensity)
	})

	t.Run("weapon requirement", func(t *testing.T) {
		c := newTestComposer(t, "sword")
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		assert.ErrorIs(t, c.SelectTechnique("五虎斷門刀"), ErrWeaponMismatch)
		assert.NoError(t, c.SelectTechnique("降龍十八掌"), "no weapon required")

		bare := newTestComposer(t, "")
		require.NoError(t, bare.SelectStrategy(StrategyAttack))
		assert.ErrorIs(t, bare.SelectTechnique("獨孤九劍"), ErrWeaponMismatch)
	})

	t.Run("technique must match strategy", func(t *testing.T) {
		c := newTestComposer(t, "")
		require.NoError(t, c.SelectStrategy(StrategyHeal))
		assert.ErrorIs(t, c.SelectTechnique("鐵布衫"), ErrTechniqueStrategy)
		assert.ErrorIs(t, c.SelectTechnique("九陰真經"), ErrUnknownTechnique)
	})

	t.Run("strategy change clears technique", func(t *testing.T) {
		c := newTestComposer(t, "")
		require.NoError(t, c.SelectStrategy(StrategyHeal))
		require.NoError(t, c.SelectTechnique("療傷篇"))
		require.NoError(t, c.SetIntensity(2))
		require.NoError(t, c.SelectStrategy(StrategyDefend))
		_, selected := c.Technique()
		assert.False(t, selected)
		assert.Equal(t, 0, c.Intensity())
	})

	t.Run("options list usability", func(t *testing.T) {
		c := newTestComposer(t, "sword")
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		opts := c.Techniques()
		require.Len(t, opts, 3)
		usable := map[string]bool{}
		for _, o := range opts {
			usable[o.Name] = o.Usable
		}
		assert.True(t, usable["獨孤九劍"])
		assert.False(t, usable["五虎斷門刀"])
	})
}

func TestComposer_SetWeapon(t *testing.T) {
	t.Run("unequipping drops a weapon technique", func(t *testing.T) {
		c := newTestComposer(t, "sword")
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		require.NoError(t, c.SelectTechnique("獨孤九劍"))
		require.NoError(t, c.SetIntensity(2))

		c.SetWeapon("")
		_, selected := c.Technique()
		assert.False(t, selected)
		assert.Equal(t, 0, c.Cost())
		assert.Equal(t, StrategyAttack, c.Strategy(), "strategy is kept")
		assert.ErrorIs(t, c.SelectTechnique("獨孤九劍"), ErrWeaponMismatch)
	})

	t.Run("weapon-free technique survives", func(t *testing.T) {
		c := newTestComposer(t, "sword")
		require.NoError(t, c.SelectStrategy(StrategyAttack))
		require.NoError(t, c.SelectTechnique("降龍十八掌"))

		c.SetWeapon("saber")
		tech, selected := c.Technique()
		require.True(t, selected)
		assert.Equal(t, "降龍十八掌", tech.Name)
		assert.Equal(t, "saber", c.Weapon())
		assert.NoError(t, c.SelectTechnique("五虎斷門刀"))
	})
}

func TestComposer_Intensity(t *testing.T) {
	c := newTestComposer(t, "")
	require.NoError(t, c.SelectStrategy(StrategyAttack))
	assert.ErrorIs(t, c.SetIntensity(1), ErrNoTechnique)

	require.NoError(t, c.SelectTechnique("降龍十八掌"))
	assert.ErrorIs(t, c.SetIntensity(0), ErrIntensityRange)
	assert.ErrorIs(t, c.SetIntensity(4), ErrIntensityRange)

	require.NoError(t, c.SetIntensity(2))
	assert.Equal(t, 30, c.Cost())
	assert.True(t, c.Affordable())

	require.NoError(t, c.SetIntensity(3))
	assert.Equal(t, 45, c.Cost())
	assert.False(t, c.Affordable())
}

func TestComposer_Dispatch(t *testing.T) {
	c := newTestComposer(t, "sword")

	cmds := []Command{
		SelectStrategy{Tag: StrategyAttack},
		SelectTarget{ID: "enemy-1"},
		SelectTechnique{Name: "獨孤九劍"},
		SetIntensity{Level: 2},
	}
	for _, cmd := range cmds {
		intent, err := c.Dispatch(cmd)
		require.NoError(t, err)
		assert.Nil(t, intent)
	}

	intent, err := c.Dispatch(ConfirmCombatAction{})
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, 2, intent.Intensity)
	assert.Equal(t, "enemy-1", intent.TargetID)

	next, err := NewSession(testSetup())
	require.NoError(t, err)
	_, err = c.Dispatch(ResetComposer{Session: next})
	require.NoError(t, err)
	assert.Same(t, next, c.Session())
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestSession_Apply(t *testing.T) {
	t.Run("keeps actors and reports movement", func(t *testing.T) {
		session, err := NewSession(testSetup())
		require.NoError(t, err)
		player, enemy := session.Player, session.Find("enemy-1")

		next := testSetup()
		next.Turn = 3
		next.Player.HP = 65
		next.Player.MP = 20
		next.Enemies[0].HP = 70
		next.Allies[0].HP = 45
		next.Enemies = append(next.Enemies, CombatantSpec{ID: "enemy-3", Name: "木高峰", HP: 60, MaxHP: 60})

		changes, err := session.Apply(next)
		require.NoError(t, err)
		assert.Equal(t, []Change{
			{ID: "player", Name: "林平之", Delta: -15, HP: 65, MaxHP: 100},
			{ID: "ally-1", Name: "儀琳", Delta: 5, HP: 45, MaxHP: 50},
			{ID: "enemy-1", Name: "余滄海", Delta: -20, HP: 70, MaxHP: 90},
		}, changes)
		assert.Equal(t, changes, session.Changes)

		assert.Same(t, player, session.Player)
		assert.Same(t, enemy, session.Find("enemy-1"))
		assert.Equal(t, 65, player.Actor.HP())
		assert.Equal(t, 20, player.MP())
		assert.Equal(t, 3, session.Turn)
		require.NotNil(t, session.Find("enemy-3"))
		assert.Len(t, session.LivingEnemies(), 2)
	})

	t.Run("knockout and omitted participants", func(t *testing.T) {
		session, err := NewSession(testSetup())
		require.NoError(t, err)

		next := testSetup()
		next.Enemies = next.Enemies[:1]
		next.Enemies[0].HP = 0

		changes, err := session.Apply(next)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, -90, changes[0].Delta)
		assert.False(t, session.Find("enemy-1").Alive())
		assert.Nil(t, session.Find("enemy-2"))
		assert.True(t, session.Over())
	})

	t.Run("invalid update changes nothing", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Setup)
		}{
			{"player id changed", func(s *Setup) { s.Player.ID = "" }},
			{"enemy without id", func(s *Setup) { s.Enemies[1].ID = "" }},
			{"ally without id", func(s *Setup) { s.Allies = append(s.Allies, CombatantSpec{Name: "無名"}) }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				session, err := NewSession(testSetup())
				require.NoError(t, err)

				next := testSetup()
				next.Turn = 9
				next.Player.HP = 1
				next.Enemies[0].HP = 1
				tt.mutate(next)

				_, err = session.Apply(next)
				require.Error(t, err)
				assert.Equal(t, testSetup(), session.Setup())
			})
		}

		session, err := NewSession(testSetup())
		require.NoError(t, err)
		_, err = session.Apply(nil)
		assert.Error(t, err)
	})
}

func TestSession_RoundTrip(t *testing.T) {
	session, err := NewSession(testSetup())
	require.NoError(t, err)

	assert.Equal(t, 80, session.Player.HP())
	assert.Equal(t, 30, session.Player.MP())
	assert.False(t, session.Find("enemy-2").Alive())
	assert.Nil(t, session.Find("nobody"))
	assert.False(t, session.Over())

	data, err := json.Marshal(session.Setup())
	require.NoError(t, err)

	var decoded Setup
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, testSetup(), &decoded)

	_, err = NewCombatant(&CombatantSpec{Name: "no id"})
	assert.Error(t, err)
}
