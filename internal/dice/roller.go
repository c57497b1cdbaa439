package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller rolls count dice with the given number of sides and adds bonus.
// Sheets take a Roller so tests can fix the faces.
type Roller interface {
	Roll(count, sides, bonus int) (*RollResult, error)
}

// RollerFunc adapts a function to Roller
type RollerFunc func(count, sides, bonus int) (*RollResult, error)

// Roll calls f
func (f RollerFunc) Roll(count, sides, bonus int) (*RollResult, error) {
	return f(count, sides, bonus)
}

// NewRandomRoller returns a Roller backed by math/rand
func NewRandomRoller() Roller {
	return RollerFunc(Roll)
}
