package sheets

import (
	"sort"
	"strings"
)

// Submission is submitted form data expanded into nested sections, so a
// field named "poke.nature" is found at Submission{"poke": {"nature": ...}}
type Submission map[string]any

// ExpandSubmission nests dotted keys. A nested key replaces a plain value
// stored at the same path.
func ExpandSubmission(flat map[string]any) Submission {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(Submission)
	for _, key := range keys {
		value := flat[key]
		parts := strings.Split(key, ".")
		cur := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(Submission)
			if !ok {
				next = make(Submission)
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = value
	}
	return out
}

// Section returns the nested section named key
func (s Submission) Section(key string) (Submission, bool) {
	if s == nil {
		return nil, false
	}
	switch v := s[key].(type) {
	case Submission:
		return v, true
	case map[string]any:
		return Submission(v), true
	default:
		return nil, false
	}
}
