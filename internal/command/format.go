package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRound prints the parts of a snapshot a player checks between turns.
func writeRound(out io.Writer, snap *state.RoundSnapshot, loc *source.LocationData) {
	title := fmt.Sprintf("Round %s", humanize.Comma(int64(snap.Round)))
	if snap.EventTitle != "" {
		title += "  " + snap.EventTitle
	}
	fmt.Fprintln(out, title)

	if len(snap.Location) > 0 {
		fmt.Fprintf(out, "Location: %s\n", strings.Join(snap.Location, " / "))
	}
	if loc != nil && len(loc.Neighbors) > 0 {
		fmt.Fprintf(out, "Exits: %s\n", strings.Join(loc.Neighbors, ", "))
	}
	fmt.Fprintf(out, "Time: %s%d年%d月%d日 %s\n", snap.Era, snap.Year, snap.Month, snap.Day, snap.TimeOfDay)
	fmt.Fprintf(out, "Internal %s  External %s  Lightness %s\n",
		humanize.Comma(int64(snap.Internal)),
		humanize.Comma(int64(snap.External)),
		humanize.Comma(int64(snap.Lightness)))
	fmt.Fprintf(out, "Morality %d  Stamina %d/%d\n", snap.Morality, snap.Stamina, state.MaxStamina)
	if snap.PlayerStatus != "" {
		fmt.Fprintf(out, "Status: %s\n", snap.PlayerStatus)
	}
	for _, npc := range snap.NPCs {
		fmt.Fprintf(out, "  • %s (%s)\n", npc.Name, state.NormalizeFriendliness(npc.Friendliness))
	}
	if snap.Suggestion != "" {
		fmt.Fprintf(out, "Suggestion: %s\n", snap.Suggestion)
	}
	if snap.IsDead {
		fmt.Fprintln(out, "The character is dead.")
	}
}

func writeInventory(out io.Writer, items []state.InventoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "Inventory is empty")
		return
	}
	for i, item := range items {
		line := fmt.Sprintf("%2d. %-12s %s", i+1, item.InstanceID, item.Name)
		if item.Quantity > 1 {
			line += " x" + humanize.Comma(int64(item.Quantity))
		}
		if item.Equipped {
			line += " [equipped:" + item.Slot + "]"
		}
		if item.Value != nil {
			line += "  value " + humanize.Comma(int64(*item.Value))
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Bulk: %s\n", humanize.Comma(int64(state.BulkScore(items))))
}
