package chat

import (
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

// Clock supplies message timestamps
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

type stamper struct {
	ids   uuid.Generator
	clock Clock
}

func newStamper(ids uuid.Generator, clock Clock) stamper {
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}
	if clock == nil {
		clock = systemClock
	}
	return stamper{ids: ids, clock: clock}
}

func (s stamper) stamp(msg *Message) {
	if msg.ID == "" {
		msg.ID = s.ids.New()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.clock()
	}
}
