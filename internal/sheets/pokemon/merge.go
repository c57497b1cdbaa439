package pokemon

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
)

// submitted is what a "poke" section carried. A nil field was not
// submitted; a non-nil empty one was submitted blank.
type submitted struct {
	nature *string
	types  []string
	moves  []Move

	hasTypes bool
	hasMoves bool
}

func parseSubmission(section sheets.Submission) submitted {
	var out submitted

	if v, ok := section["nature"]; ok {
		nature := ""
		if v != nil {
			nature = strings.TrimSpace(fmt.Sprint(v))
		}
		out.nature = &nature
	}
	if v, ok := section["types"]; ok {
		out.types, out.hasTypes = toTypes(v), true
	}
	if v, ok := section["moves"]; ok {
		out.moves, out.hasMoves = toMoves(v), true
	}
	return out
}

// merge applies sub over stored. Blank submitted values fall back to the
// stored ones, and the fallback is logged so a cleared field is visible.
func merge(actorID string, stored Profile, sub submitted) Profile {
	merged := Profile{
		Nature: stored.Nature,
		Types:  stored.Types,
		Moves:  stored.Moves,
	}

	if sub.nature != nil {
		if *sub.nature != "" {
			merged.Nature = *sub.nature
		} else {
			logf("blank nature submitted for actor %s, keeping %q", actorID, stored.Nature)
		}
	}

	if sub.hasTypes {
		if len(sub.types) > 0 {
			merged.Types = sub.types
		} else {
			logf("blank types submitted for actor %s, keeping %d stored", actorID, len(stored.Types))
		}
	}

	if sub.hasMoves {
		if len(sub.moves) > 0 {
			merged.Moves = carryMoveFields(stored.Moves, sub.moves)
		} else {
			logf("blank moves submitted for actor %s, keeping %d stored", actorID, len(stored.Moves))
		}
	}

	return merged
}

// carryMoveFields keeps the unmodeled fields of stored moves for submitted
// moves that only name them. Each stored move is matched at most once.
func carryMoveFields(stored, submitted []Move) []Move {
	used := make([]bool, len(stored))
	out := make([]Move, len(submitted))
	for i, m := range submitted {
		out[i] = m
		if m.Extra != nil {
			continue
		}
		for j, old := range stored {
			if used[j] || !strings.EqualFold(old.Name, m.Name) {
				continue
			}
			used[j] = true
			out[i].Extra = old.Extra
			break
		}
	}
	return out
}

func toTypes(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			if item != nil {
				raw = append(raw, fmt.Sprint(item))
			}
		}
	default:
		raw = []string{fmt.Sprint(t)}
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func toMoves(v any) []Move {
	var out []Move
	add := func(m Move) {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name != "" || m.Extra != nil {
			out = append(out, m)
		}
	}

	switch t := v.(type) {
	case nil:
	case string:
		for _, line := range strings.Split(t, "\n") {
			add(Move{Name: line})
		}
	case []string:
		for _, name := range t {
			add(Move{Name: name})
		}
	case []Move:
		for _, m := range t {
			add(m)
		}
	case []any:
		for _, item := range t {
			if m, ok := toMove(item); ok {
				add(m)
			}
		}
	case []map[string]any:
		for _, item := range t {
			if m, ok := toMove(item); ok {
				add(m)
			}
		}
	case []sheets.Submission:
		for _, item := range t {
			if m, ok := toMove(map[string]any(item)); ok {
				add(m)
			}
		}
	default:
		if m, ok := toMove(t); ok {
			add(m)
		}
	}
	return out
}

func toMove(v any) (Move, bool) {
	switch t := v.(type) {
	case Move:
		return t, true
	case string:
		return Move{Name: t}, true
	case nil:
		return Move{}, false
	default:
		raw, err := json.Marshal(t)
		if err == nil {
			var m Move
			if err = json.Unmarshal(raw, &m); err == nil {
				return m, true
			}
		}
		logf("dropping submitted move %v: %v", t, err)
		return Move{}, false
	}
}
