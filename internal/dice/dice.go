package dice

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
)

// RollResult is the outcome of rolling count dice of a single size
type RollResult struct {
	Count    int
	Sides    int
	Bonus    int
	Rolls    []int
	Total    int
	RawTotal int
	IsCrit   bool
	IsFumble bool
}

// Roll rolls count dice of the given size and adds bonus
func Roll(count, size, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, errors.New("invalid dice count")
	}

	if size < 1 {
		return nil, errors.New("invalid dice size")
	}

	out := make([]int, count)
	for i := range out {
		out[i] = rand.Intn(size) + 1
	}

	log.Printf("[Dice] %dd%d %v + %d", count, size, out, bonus)
	return newResult(count, size, bonus, out), nil
}

func newResult(count, sides, bonus int, rolls []int) *RollResult {
	raw := 0
	for _, r := range rolls {
		raw += r
	}

	result := &RollResult{
		Count:    count,
		Sides:    sides,
		Bonus:    bonus,
		Rolls:    rolls,
		Total:    raw + bonus,
		RawTotal: raw,
	}

	if count == 1 && sides == 20 && len(rolls) == 1 {
		result.IsCrit = rolls[0] == 20
		result.IsFumble = rolls[0] == 1
	}

	return result
}

// String renders the result for chat, e.g. "**17** : [15] + 2"
func (r *RollResult) String() string {
	compact := strings.ReplaceAll(fmt.Sprintf("%v", r.Rolls), " ", "")
	if r.Bonus == 0 {
		return fmt.Sprintf("**%d** : %s", r.Total, compact)
	}
	return fmt.Sprintf("**%d** : %s + %d", r.Total, compact, r.Bonus)
}
