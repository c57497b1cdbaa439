// Package chat is the shared chat log rolls are posted to.
package chat

import (
	"context"
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
)

//go:generate mockgen -destination=mock/mock_log.go -package=mockchat -source=chat.go

// Speaker identifies who a chat message is attributed to
type Speaker struct {
	ActorID string `json:"actor_id,omitempty"`
	Alias   string `json:"alias"`
}

// SpeakerFor attributes a message to an actor
func SpeakerFor(a *actor.Actor) Speaker {
	if a == nil {
		return Speaker{}
	}
	return Speaker{ActorID: a.ID, Alias: a.Name}
}

// Message is one chat log entry. Roll fields are empty for plain text.
type Message struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Flavor    string    `json:"flavor,omitempty"`
	Content   string    `json:"content,omitempty"`
	Formula   string    `json:"formula,omitempty"`
	Rolls     []int     `json:"rolls,omitempty"`
	Bonus     int       `json:"bonus,omitempty"`
	Total     int       `json:"total,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RollMessage builds the chat entry for an evaluated roll
func RollMessage(speaker Speaker, flavor, formula string, result *dice.RollResult) *Message {
	msg := &Message{
		Speaker: speaker,
		Flavor:  flavor,
		Formula: formula,
	}
	if result != nil {
		msg.Rolls = append([]int(nil), result.Rolls...)
		msg.Bonus = result.Bonus
		msg.Total = result.Total
	}
	return msg
}

// IsRoll reports whether the message carries a roll
func (m *Message) IsRoll() bool {
	return m.Formula != ""
}

// Log accepts chat messages
type Log interface {
	// Post appends msg to the log. Backends fill ID and Timestamp when empty.
	Post(ctx context.Context, msg *Message) error
}

// History is a Log that can replay its most recent entries, newest first
type History interface {
	Log
	Recent(ctx context.Context, limit int) ([]*Message, error)
}
