package pokemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/flags"
)

const (
	// Namespace scopes every flag the sheet stores
	Namespace = "pokemon-pf1-sheet"
	// FlagKey is the single flag holding the profile
	FlagKey = "data"
	// DefaultNature is shown until a nature is saved
	DefaultNature = "Hardy"
)

// Move is one entry of a profile's move list. Ruleset fields the sheet
// does not model are kept in Extra and written back untouched.
type Move struct {
	Name  string
	Extra map[string]json.RawMessage
}

// MarshalJSON writes Extra and name as one object
func (m Move) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	name, err := json.Marshal(m.Name)
	if err != nil {
		return nil, err
	}
	out["name"] = name
	return json.Marshal(out)
}

// UnmarshalJSON reads name and keeps every other field in Extra. A bare
// string is read as a move with only a name; null leaves m untouched.
func (m *Move) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = Move{Name: name}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*m = Move{}
	if raw, ok := fields["name"]; ok {
		if err := json.Unmarshal(raw, &m.Name); err != nil {
			return err
		}
		delete(fields, "name")
	}
	if len(fields) > 0 {
		m.Extra = fields
	}
	return nil
}

// ExtraKeys lists the unmodeled fields, sorted
func (m Move) ExtraKeys() []string {
	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Profile is the stored Pokémon data of an actor
type Profile struct {
	Nature string   `json:"nature"`
	Types  []string `json:"types"`
	Moves  []Move   `json:"moves"`
}

// UnmarshalJSON decodes field by field over the current value, so a field
// stored in an unexpected shape keeps its default and the rest survive.
// types may be a comma separated string and moves a newline separated one;
// null or unreadable moves are skipped. Only a value that is not an object
// is an error.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["nature"]; ok && !isNull(raw) {
		var nature string
		if err := json.Unmarshal(raw, &nature); err != nil {
			logf("ignoring stored nature %s: %v", raw, err)
		} else {
			p.Nature = nature
		}
	}

	if raw, ok := fields["types"]; ok && !isNull(raw) {
		var v any
		err := json.Unmarshal(raw, &v)
		if _, isObject := v.(map[string]any); err == nil && isObject {
			err = fmt.Errorf("types is an object")
		}
		if err != nil {
			logf("ignoring stored types %s: %v", raw, err)
		} else {
			p.Types = toTypes(v)
		}
	}

	if raw, ok := fields["moves"]; ok && !isNull(raw) {
		moves, err := decodeMoves(raw)
		if err != nil {
			logf("ignoring stored moves %s: %v", raw, err)
		} else {
			p.Moves = moves
		}
	}

	return nil
}

func decodeMoves(raw json.RawMessage) ([]Move, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return toMoves(text), nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	moves := make([]Move, 0, len(items))
	for i, item := range items {
		if isNull(item) {
			logf("skipping empty stored move %d", i)
			continue
		}
		var m Move
		if err := json.Unmarshal(item, &m); err != nil {
			logf("skipping unreadable stored move %d: %v", i, err)
			continue
		}
		moves = append(moves, m)
	}
	return moves, nil
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

// DefaultProfile is the profile of an actor that never saved one
func DefaultProfile() Profile {
	return Profile{
		Nature: DefaultNature,
		Types:  []string{},
		Moves:  []Move{},
	}
}

// MoveAt returns the move at index, if there is one
func (p Profile) MoveAt(index int) (Move, bool) {
	if index < 0 || index >= len(p.Moves) {
		return Move{}, false
	}
	return p.Moves[index], true
}

func normalizeProfile(p *Profile) error {
	if p.Nature == "" {
		p.Nature = DefaultNature
	}
	if p.Types == nil {
		p.Types = []string{}
	}
	moves := make([]Move, 0, len(p.Moves))
	for _, m := range p.Moves {
		if m.Name != "" || m.Extra != nil {
			moves = append(moves, m)
		}
	}
	p.Moves = moves
	return nil
}

// Schema is the typed flag schema for the profile
func Schema() flags.Schema[Profile] {
	return flags.Schema[Profile]{
		Defaults:  DefaultProfile,
		Normalize: normalizeProfile,
	}
}
