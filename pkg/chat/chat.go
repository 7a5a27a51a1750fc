// Package chat keeps the narrative log a session shows the player: what they
// typed, what the world answered, and system notices.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	RolePlayer   = "player"   // player input
	RoleNarrator = "narrator" // story text from the source
	RoleSystem   = "system"   // errors and notices
)

// DefaultLimit is how many messages a Log keeps when no limit is given.
const DefaultLimit = 500

// Message is a single entry in the narrative log.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Round   int       `json:"round"`
	At      time.Time `json:"at"`
}

// Log is an append-only, size-bounded message history safe for concurrent
// readers.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	limit    int
	now      func() time.Time
}

// NewLog creates a log holding at most limit messages; limit <= 0 uses
// DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit, now: time.Now}
}

// Append adds a message and returns it. Empty content is ignored.
func (l *Log) Append(role, content string, round int) (Message, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, false
	}
	msg := Message{
		ID:      uuid.New(),
		Role:    role,
		Content: content,
		Round:   round,
		At:      l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
	if over := len(l.messages) - l.limit; over > 0 {
		l.messages = append(l.messages[:0:0], l.messages[over:]...)
	}
	return msg, true
}

// Messages returns a copy of the history, oldest first.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recent message with the given role.
func (l *Log) Last(role string) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Role == role {
			return l.messages[i], true
		}
	}
	return Message{}, false
}

// Transcript renders the log as plain text, one speaker-prefixed paragraph
// per message.
func (l *Log) Transcript(playerName string) string {
	var b strings.Builder
	for i, msg := range l.Messages() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatWithSpeaker(msg, playerName))
	}
	return b.String()
}

// FormatWithSpeaker prefixes player lines with the player's name and system
// lines with a marker. Narration is returned as is.
func FormatWithSpeaker(msg Message, playerName string) string {
	switch msg.Role {
	case RolePlayer:
		if playerName == "" {
			playerName = "你"
		}
		return fmt.Sprintf("%s：%s", playerName, msg.Content)
	case RoleSystem:
		return fmt.Sprintf("【系統】%s", msg.Content)
	default:
		return msg.Content
	}
}
