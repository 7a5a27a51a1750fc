package state

import "slices"

// Equip slots.
const (
	SlotWeapon    = "weapon"
	SlotBody      = "body"
	SlotAccessory = "accessory"
)

// InventoryItem is one owned unit or stack.
type InventoryItem struct {
	InstanceID string `json:"instanceId"`
	TemplateID string `json:"templateId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Type       string `json:"type,omitempty"` // e.g. "sword", "armor", "medicine"
	Slot       string `json:"slot,omitempty"`
	Equipped   bool   `json:"equipped,omitempty"`
	Value      *int   `json:"value,omitempty"`
}

// unit bulk per slot; items without a slot count as 1
var slotBulk = map[string]int{
	SlotWeapon: 3,
	SlotBody:   4,
}

// EquippedWeapon returns the type tag of the equipped weapon, or "" when the
// player is bare-handed.
func EquippedWeapon(items []InventoryItem) string {
	for _, item := range items {
		if item.Equipped && item.Slot == SlotWeapon {
			return item.Type
		}
	}
	return ""
}

// EquipConflicts lists slots held by more than one equipped item.
func EquipConflicts(items []InventoryItem) []string {
	seen := make(map[string]int)
	var conflicts []string
	for _, item := range items {
		if !item.Equipped || item.Slot == "" {
			continue
		}
		seen[item.Slot]++
		if seen[item.Slot] == 2 {
			conflicts = append(conflicts, item.Slot)
		}
	}
	return conflicts
}

// BulkScore is the encumbrance figure inventory endpoints report.
func BulkScore(items []InventoryItem) int {
	total := 0
	for _, item := range items {
		bulk, ok := slotBulk[item.Slot]
		if !ok {
			bulk = 1
		}
		total += max(item.Quantity, 0) * bulk
	}
	return total
}

// FindItem returns the index of the item with the given instance id, or -1.
func FindItem(items []InventoryItem, instanceID string) int {
	return slices.IndexFunc(items, func(item InventoryItem) bool {
		return item.InstanceID == instanceID
	})
}

// CloneItems returns a deep copy of items.
func CloneItems(items []InventoryItem) []InventoryItem {
	if items == nil {
		return nil
	}
	out := make([]InventoryItem, len(items))
	for i, item := range items {
		if item.Value != nil {
			v := *item.Value
			item.Value = &v
		}
		out[i] = item
	}
	return out
}
