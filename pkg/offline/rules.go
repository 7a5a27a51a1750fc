package offline

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/wuxia-session/pkg/state"
	"github.com/jwebster45206/wuxia-session/pkg/textfilter"
)

const eventTitleRunes = 12

// calendar and effect sizes
const (
	daysPerMonth    = 30
	monthsPerYear   = 12
	restStamina     = 20
	fallbackStamina = -5
	helpMorality    = 2
	harmMorality    = -3
)

type branch struct {
	name      string
	keywords  *textfilter.KeywordSet
	apply     func(rs *state.RoundSnapshot)
	narrative string
	status    string
}

// branches are tried in order; the first match wins.
var branches = []branch{
	{
		name: "rest",
		keywords: textfilter.NewKeywordSet(
			"休息", "歇息", "小憩", "睡", "養神", "rest", "sleep", "nap",
		),
		apply:     func(rs *state.RoundSnapshot) { rs.Stamina += restStamina },
		narrative: "稍作歇息，體力恢復了不少。",
		status:    "精神稍復",
	},
	{
		name: "internal",
		keywords: textfilter.NewKeywordSet(
			"內功", "運功", "打坐", "吐納", "修煉", "心法", "調息", "meditate", "cultivate",
		),
		apply:     func(rs *state.RoundSnapshot) { rs.Internal++ },
		narrative: "盤膝運功，內息流轉周天，內力略有精進。",
		status:    "內息充盈",
	},
	{
		name: "external",
		keywords: textfilter.NewKeywordSet(
			"練拳", "練劍", "練刀", "練武", "外功", "揮劍", "出招", "比武", "打鬥", "攻擊", "殺",
			"train", "fight", "attack", "spar",
		),
		apply:     func(rs *state.RoundSnapshot) { rs.External++ },
		narrative: "演練招式，拳腳之間外功更見扎實。",
		status:    "筋骨舒展",
	},
	{
		name: "lightness",
		keywords: textfilter.NewKeywordSet(
			"輕功", "趕路", "前往", "出發", "探索", "遊歷", "散步", "走", "跑",
			"travel", "explore", "walk", "run",
		),
		apply:     func(rs *state.RoundSnapshot) { rs.Lightness++ },
		narrative: "施展身法四處探索，輕功又熟練了幾分。",
		status:    "身輕如燕",
	},
}

var fallback = branch{
	name:      "fallback",
	apply:     func(rs *state.RoundSnapshot) { rs.Stamina += fallbackStamina },
	narrative: "依言行事，一番奔忙下來略感疲憊。",
	status:    "略感疲憊",
}

var (
	helping = textfilter.NewKeywordSet(
		"救", "幫", "助", "扶", "施捨", "行善", "help", "save", "aid", "rescue",
	)
	predatory = textfilter.NewKeywordSet(
		"搶", "偷", "劫", "殺", "敲詐", "rob", "steal", "kill", "extort",
	)
)

func classify(text string) branch {
	for _, b := range branches {
		if b.keywords.Contains(text) {
			return b
		}
	}
	return fallback
}

// ApplyAction advances the bundle by one free-text action. It does not modify
// b and returns the new bundle with a short narrative.
func ApplyAction(b *Bundle, text string) (*Bundle, string) {
	next := b.Clone()
	rs := &next.Round

	rs.Round++
	rs.EventTitle = textfilter.Truncate(text, eventTitleRunes)

	br := classify(text)
	br.apply(rs)
	rs.PlayerStatus = br.status

	var story strings.Builder
	fmt.Fprintf(&story, "你在%s%s", locationName(next), br.narrative)

	if helping.Contains(text) {
		rs.Morality += helpMorality
		story.WriteString("你的善舉讓旁人心生敬意。")
	}
	if predatory.Contains(text) {
		rs.Morality += harmMorality
		story.WriteString("此舉有違俠義，旁人紛紛側目。")
	}

	advanceClock(rs)
	rs.Suggestion = suggestionFor(rs)
	rs.Normalize()

	return next, story.String()
}

// advanceClock moves the time of day one step, rolling the calendar on wrap.
func advanceClock(rs *state.RoundSnapshot) {
	tod, wrapped := state.NextTimeOfDay(rs.TimeOfDay)
	rs.TimeOfDay = tod
	if !wrapped {
		return
	}
	rs.Day++
	if rs.Day > daysPerMonth {
		rs.Day = 1
		rs.Month++
	}
	if rs.Month > monthsPerYear {
		rs.Month = 1
		rs.Year++
	}
}

func suggestionFor(rs *state.RoundSnapshot) string {
	switch {
	case rs.Stamina < 30:
		return "體力不支，不妨找個地方休息。"
	case rs.TimeOfDay == "深夜":
		return "夜已深了，宜打坐調息。"
	default:
		return "可以四處走走，或是練功精進。"
	}
}

func locationName(b *Bundle) string {
	if name := b.Round.CurrentLocation(); name != "" {
		return name
	}
	if b.Location.Name != "" {
		return b.Location.Name
	}
	return "此處"
}
