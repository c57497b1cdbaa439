package chat

import (
	"context"
	"sync"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

// MemoryLog keeps the chat log in process, capped at Max entries
type MemoryLog struct {
	mu       sync.RWMutex
	messages []*Message
	max      int
	stamper  stamper
}

// MemoryLogConfig configures a MemoryLog. Max <= 0 keeps everything.
type MemoryLogConfig struct {
	Max   int
	IDs   uuid.Generator
	Clock Clock
}

// NewMemoryLog creates an in-memory chat log
func NewMemoryLog(cfg MemoryLogConfig) *MemoryLog {
	return &MemoryLog{
		max:     cfg.Max,
		stamper: newStamper(cfg.IDs, cfg.Clock),
	}
}

// Post implements Log
func (l *MemoryLog) Post(_ context.Context, msg *Message) error {
	if msg == nil {
		return sheeterr.InvalidArgument("chat message is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stamper.stamp(msg)
	copied := *msg
	copied.Rolls = append([]int(nil), msg.Rolls...)
	l.messages = append(l.messages, &copied)
	if l.max > 0 && len(l.messages) > l.max {
		l.messages = l.messages[len(l.messages)-l.max:]
	}
	return nil
}

// Recent implements History
func (l *MemoryLog) Recent(_ context.Context, limit int) ([]*Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.messages) {
		limit = len(l.messages)
	}

	out := make([]*Message, 0, limit)
	for i := len(l.messages) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *l.messages[i]
		out = append(out, &copied)
	}
	return out, nil
}
