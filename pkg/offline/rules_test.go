package offline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restedBundle() *Bundle {
	b := Bootstrap()
	b.Round.Stamina = 50
	return b
}

func TestApplyAction_Branches(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		internal  int
		external  int
		lightness int
		stamina   int
		morality  int
	}{
		{"rest", "找間客棧休息", 10, 10, 10, 70, 0},
		{"internal", "盤膝打坐運功", 11, 10, 10, 50, 0},
		{"external", "到空地練劍", 10, 11, 10, 50, 0},
		{"lightness", "施展輕功前往杭州城", 10, 10, 11, 50, 0},
		{"fallback", "望著湖面發呆", 10, 10, 10, 45, 0},
		{"rest beats internal", "休息片刻再打坐", 10, 10, 10, 70, 0},
		{"internal beats external", "練劍之後調息", 11, 10, 10, 50, 0},
		{"full-width ascii", "ＲＥＳＴ", 10, 10, 10, 70, 0},
		{"english mixed case", "Go Explore the lake", 10, 10, 11, 50, 0},
		{"helping", "救助傷者", 10, 10, 10, 45, 2},
		{"predatory", "搶劫路人", 10, 10, 10, 45, -3},
		{"combat is predatory too", "殺了那個惡霸", 10, 11, 10, 50, -3},
		{"both morality sets", "搶了惡霸的錢去救人", 10, 10, 10, 45, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, story := ApplyAction(restedBundle(), tt.text)
			rs := next.Round
			assert.Equal(t, 1, rs.Round)
			assert.Equal(t, tt.internal, rs.Internal, "internal")
			assert.Equal(t, tt.external, rs.External, "external")
			assert.Equal(t, tt.lightness, rs.Lightness, "lightness")
			assert.Equal(t, tt.stamina, rs.Stamina, "stamina")
			assert.Equal(t, tt.morality, rs.Morality, "morality")
			assert.Contains(t, story, "西湖畔")
		})
	}
}

func TestApplyAction_DoesNotModifyInput(t *testing.T) {
	b := Bootstrap()
	before := b.Clone()

	next, _ := ApplyAction(b, "丟下青鋼劍去救人")
	next.Inventory[0].Name = "changed"
	next.Round.NPCs[0].Status = "changed"

	assert.Equal(t, before, b)
}

func TestApplyAction_Deterministic(t *testing.T) {
	a, storyA := ApplyAction(Bootstrap(), "練劍")
	b, storyB := ApplyAction(Bootstrap(), "練劍")
	assert.Equal(t, a, b)
	assert.Equal(t, storyA, storyB)
}

func TestApplyAction_EventTitle(t *testing.T) {
	next, _ := ApplyAction(Bootstrap(), "  走  ")
	assert.Equal(t, "走", next.Round.EventTitle)

	next, _ = ApplyAction(Bootstrap(), "沿著蘇堤一路走到斷橋邊看看風景如何")
	assert.Equal(t, "沿著蘇堤一路走到斷橋邊看…", next.Round.EventTitle)
}

func TestApplyAction_Clock(t *testing.T) {
	t.Run("one step per action", func(t *testing.T) {
		next, _ := ApplyAction(Bootstrap(), "發呆")
		assert.Equal(t, "上午", next.Round.TimeOfDay)
		assert.Equal(t, 1, next.Round.Day)
	})

	t.Run("wrap advances the day", func(t *testing.T) {
		b := Bootstrap()
		b.Round.TimeOfDay = "深夜"
		b.Round.Day = 7
		next, _ := ApplyAction(b, "發呆")
		assert.Equal(t, "清晨", next.Round.TimeOfDay)
		assert.Equal(t, 8, next.Round.Day)
		assert.Equal(t, 1, next.Round.Month)
	})

	t.Run("year rollover", func(t *testing.T) {
		b := Bootstrap()
		b.Round.TimeOfDay = "深夜"
		b.Round.Day = 30
		b.Round.Month = 12
		next, _ := ApplyAction(b, "發呆")
		assert.Equal(t, 1, next.Round.Day)
		assert.Equal(t, 1, next.Round.Month)
		assert.Equal(t, 2, next.Round.Year)
	})
}

func TestApplyAction_Clamps(t *testing.T) {
	b := Bootstrap()
	b.Round.Stamina = 2
	b.Round.Morality = -99
	next, _ := ApplyAction(b, "搶劫")
	assert.Equal(t, 0, next.Round.Stamina)
	assert.Equal(t, -100, next.Round.Morality)
	assert.NotEmpty(t, next.Round.Suggestion)

	b = Bootstrap()
	b.Round.Stamina = 95
	next, _ = ApplyAction(b, "sleep")
	assert.Equal(t, 100, next.Round.Stamina)
	require.Equal(t, b.Round.Round+1, next.Round.Round)
}
