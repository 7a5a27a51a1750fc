package state

// Friendliness categories an NPC can hold toward the player.
const (
	FriendlinessAlly     = "ally"
	FriendlinessFriendly = "friendly"
	FriendlinessNeutral  = "neutral"
	FriendlinessWary     = "wary"
	FriendlinessHostile  = "hostile"
)

var friendliness = map[string]bool{
	FriendlinessAlly:     true,
	FriendlinessFriendly: true,
	FriendlinessNeutral:  true,
	FriendlinessWary:     true,
	FriendlinessHostile:  true,
}

// NPCRecord is a non-player character as the player currently knows them.
// Name is the identity key and is matched exactly.
type NPCRecord struct {
	Name         string `json:"name"`
	Status       string `json:"status,omitempty"`
	Friendliness string `json:"friendliness,omitempty"`
	Deceased     bool   `json:"deceased,omitempty"`
	Affinity     *int   `json:"affinity,omitempty"`
	Trust        *int   `json:"trust,omitempty"`
}

// NPCUpdate carries only the fields a source chose to send for one NPC.
// A nil field means "unchanged".
type NPCUpdate struct {
	Name         string  `json:"name"`
	Status       *string `json:"status,omitempty"`
	Friendliness *string `json:"friendliness,omitempty"`
	Deceased     *bool   `json:"deceased,omitempty"`
	Affinity     *int    `json:"affinity,omitempty"`
	Trust        *int    `json:"trust,omitempty"`
}

// NormalizeFriendliness maps unrecognized categories to neutral.
func NormalizeFriendliness(f string) string {
	if friendliness[f] {
		return f
	}
	return FriendlinessNeutral
}

// apply shallow-overwrites the record with every field present in u.
func (n *NPCRecord) apply(u NPCUpdate) {
	if u.Status != nil {
		n.Status = *u.Status
	}
	if u.Friendliness != nil {
		n.Friendliness = *u.Friendliness
	}
	if u.Deceased != nil {
		n.Deceased = *u.Deceased
	}
	if u.Affinity != nil {
		v := *u.Affinity
		n.Affinity = &v
	}
	if u.Trust != nil {
		v := *u.Trust
		n.Trust = &v
	}
	n.Friendliness = NormalizeFriendliness(n.Friendliness)
}

func (n NPCRecord) clone() NPCRecord {
	if n.Affinity != nil {
		v := *n.Affinity
		n.Affinity = &v
	}
	if n.Trust != nil {
		v := *n.Trust
		n.Trust = &v
	}
	return n
}

// mergeNPCs merges updates into prev by name, appending unknown names, and
// drops every deceased record from the result.
func mergeNPCs(prev []NPCRecord, updates []NPCUpdate) []NPCRecord {
	merged := make([]NPCRecord, 0, len(prev)+len(updates))
	index := make(map[string]int, len(prev))
	for _, npc := range prev {
		index[npc.Name] = len(merged)
		merged = append(merged, npc.clone())
	}

	for _, u := range updates {
		if u.Name == "" {
			continue
		}
		if i, ok := index[u.Name]; ok {
			merged[i].apply(u)
			continue
		}
		npc := NPCRecord{Name: u.Name}
		npc.apply(u)
		index[u.Name] = len(merged)
		merged = append(merged, npc)
	}

	var alive []NPCRecord
	for _, npc := range merged {
		if !npc.Deceased {
			alive = append(alive, npc)
		}
	}
	return alive
}
