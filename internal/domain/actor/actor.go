package actor

import (
	"encoding/json"
	"time"
)

// Kind is the host's actor type used to pick applicable sheets
type Kind string

const (
	KindCharacter Kind = "character"
	KindNPC       Kind = "npc"
)

// Ability keys as stored in System.Abilities
const (
	AbilityStrength     = "str"
	AbilityDexterity    = "dex"
	AbilityConstitution = "con"
	AbilityIntelligence = "int"
	AbilityWisdom       = "wis"
	AbilityCharisma     = "cha"
)

// DefaultLevel is reported when neither level shape is present
const DefaultLevel = 1

// AbilityScore is a single raw ability score
type AbilityScore struct {
	Value int `json:"value"`
}

// Details holds the ruleset's descriptive block. Some system versions keep
// the level here instead of at the top of System.
type Details struct {
	Level int `json:"level,omitempty"`
}

// System is the ruleset-owned data of an actor
type System struct {
	Abilities map[string]*AbilityScore `json:"abilities,omitempty"`
	Details   *Details                 `json:"details,omitempty"`
	Level     int                      `json:"level,omitempty"`
}

// Flags is per-module storage keyed by namespace then key
type Flags map[string]map[string]json.RawMessage

// Actor is a host-managed game entity
type Actor struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	System    *System   `json:"system,omitempty"`
	Flags     Flags     `json:"flags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Level returns system.details.level, then system.level, then DefaultLevel
func (a *Actor) Level() int {
	if a == nil || a.System == nil {
		return DefaultLevel
	}
	if a.System.Details != nil && a.System.Details.Level > 0 {
		return a.System.Details.Level
	}
	if a.System.Level > 0 {
		return a.System.Level
	}
	return DefaultLevel
}

// AbilityScore returns the raw score for key. A missing or zero score is
// reported as not present.
func (a *Actor) AbilityScore(key string) (int, bool) {
	if a == nil || a.System == nil || a.System.Abilities == nil {
		return 0, false
	}
	score, ok := a.System.Abilities[key]
	if !ok || score == nil || score.Value == 0 {
		return 0, false
	}
	return score.Value, true
}

// GetFlag returns the raw value stored under namespace/key
func (a *Actor) GetFlag(namespace, key string) (json.RawMessage, bool) {
	if a == nil || a.Flags == nil {
		return nil, false
	}
	scope, ok := a.Flags[namespace]
	if !ok {
		return nil, false
	}
	value, ok := scope[key]
	if !ok || len(value) == 0 {
		return nil, false
	}
	return value, true
}

// SetFlag stores value under namespace/key
func (a *Actor) SetFlag(namespace, key string, value json.RawMessage) {
	if a.Flags == nil {
		a.Flags = make(Flags)
	}
	if a.Flags[namespace] == nil {
		a.Flags[namespace] = make(map[string]json.RawMessage)
	}
	a.Flags[namespace][key] = value
}

// UnsetFlag removes namespace/key, dropping the namespace when it empties
func (a *Actor) UnsetFlag(namespace, key string) {
	if a.Flags == nil || a.Flags[namespace] == nil {
		return
	}
	delete(a.Flags[namespace], key)
	if len(a.Flags[namespace]) == 0 {
		delete(a.Flags, namespace)
	}
}

// Clone returns a deep copy so stores never share maps with callers
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	clone := *a
	if a.System != nil {
		sys := *a.System
		if a.System.Abilities != nil {
			sys.Abilities = make(map[string]*AbilityScore, len(a.System.Abilities))
			for k, v := range a.System.Abilities {
				if v == nil {
					continue
				}
				score := *v
				sys.Abilities[k] = &score
			}
		}
		if a.System.Details != nil {
			details := *a.System.Details
			sys.Details = &details
		}
		clone.System = &sys
	}

	if a.Flags != nil {
		clone.Flags = make(Flags, len(a.Flags))
		for ns, scope := range a.Flags {
			copied := make(map[string]json.RawMessage, len(scope))
			for k, v := range scope {
				copied[k] = append(json.RawMessage(nil), v...)
			}
			clone.Flags[ns] = copied
		}
	}

	return &clone
}
