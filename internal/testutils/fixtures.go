package testutils

import (
	"encoding/json"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

// CreateTestActor creates an actor with a strength score and level
func CreateTestActor(id, ownerID, name string, kind actor.Kind) *actor.Actor {
	return &actor.Actor{
		ID:      id,
		OwnerID: ownerID,
		Name:    name,
		Kind:    kind,
		System: &actor.System{
			Abilities: map[string]*actor.AbilityScore{
				actor.AbilityStrength: {Value: 10},
			},
			Details: &actor.Details{Level: 1},
		},
	}
}

// CreateTestPokemon creates a character carrying a Pokémon profile flag
func CreateTestPokemon(id, name string, strength, level int, profile pokemon.Profile) *actor.Actor {
	a := CreateTestActor(id, "", name, actor.KindCharacter)
	a.System.Abilities[actor.AbilityStrength].Value = strength
	a.System.Details.Level = level

	raw, err := json.Marshal(profile)
	if err != nil {
		panic(err)
	}
	a.SetFlag(pokemon.Namespace, pokemon.FlagKey, raw)
	return a
}
