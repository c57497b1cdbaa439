package mockdice

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice"
)

// ManualMockRoller implements dice.Roller with predetermined results and
// records every call it receives
type ManualMockRoller struct {
	mu        sync.Mutex
	rolls     []int
	rollIndex int
	calls     []Call
}

// Call is one recorded Roll invocation
type Call struct {
	Count int
	Sides int
	Bonus int
}

// NewManualMockRoller creates a new mock dice roller
func NewManualMockRoller() *ManualMockRoller {
	return &ManualMockRoller{
		rolls: []int{},
	}
}

// SetNextRoll sets the next roll result
func (m *ManualMockRoller) SetNextRoll(roll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = append(m.rolls, roll)
}

// SetRolls sets multiple roll results
func (m *ManualMockRoller) SetRolls(rolls []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = rolls
	m.rollIndex = 0
}

// Reset clears all rolls, recorded calls and the index
func (m *ManualMockRoller) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = []int{}
	m.rollIndex = 0
	m.calls = nil
}

// Calls returns the recorded Roll invocations
func (m *ManualMockRoller) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *ManualMockRoller) getNextRoll() (int, error) {
	if m.rollIndex >= len(m.rolls) {
		return 0, fmt.Errorf("no more predetermined rolls available (used %d of %d)", m.rollIndex, len(m.rolls))
	}

	roll := m.rolls[m.rollIndex]
	m.rollIndex++
	return roll, nil
}

// Roll implements dice.Roller.Roll
func (m *ManualMockRoller) Roll(count, sides, bonus int) (*dice.RollResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Count: count, Sides: sides, Bonus: bonus})

	rolls := make([]int, count)
	raw := 0
	for i := 0; i < count; i++ {
		roll, err := m.getNextRoll()
		if err != nil {
			return nil, err
		}
		if roll < 1 || roll > sides {
			return nil, fmt.Errorf("invalid roll %d for d%d", roll, sides)
		}
		rolls[i] = roll
		raw += roll
	}

	result := &dice.RollResult{
		Count:    count,
		Sides:    sides,
		Bonus:    bonus,
		Rolls:    rolls,
		Total:    raw + bonus,
		RawTotal: raw,
	}
	if count == 1 && sides == 20 {
		result.IsCrit = rolls[0] == 20
		result.IsFumble = rolls[0] == 1
	}

	return result, nil
}
