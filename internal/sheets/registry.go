package sheets

import (
	"log"
	"sort"
	"sync"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// Factory builds a sheet instance when the host opens one
type Factory func() Sheet

// RegistrationConfig says which actors a sheet applies to
type RegistrationConfig struct {
	Types       []actor.Kind
	MakeDefault bool
	Label       string
}

// Registration is a sheet registered for a ruleset namespace
type Registration struct {
	Namespace   string
	Label       string
	Types       []actor.Kind
	MakeDefault bool
	Factory     Factory
}

// Applies reports whether the registration covers kind
func (r *Registration) Applies(kind actor.Kind) bool {
	for _, k := range r.Types {
		if k == kind {
			return true
		}
	}
	return false
}

// Registrar is the part of the registry sheets need to register themselves
type Registrar interface {
	RegisterSheet(namespace string, factory Factory, cfg RegistrationConfig) error
}

// Registry holds every registered sheet, per ruleset namespace
type Registry struct {
	mu    sync.RWMutex
	sheet map[string][]*Registration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sheet: make(map[string][]*Registration)}
}

// RegisterSheet implements Registrar
func (r *Registry) RegisterSheet(namespace string, factory Factory, cfg RegistrationConfig) error {
	if namespace == "" {
		return sheeterr.InvalidArgument("sheet namespace is required")
	}
	if factory == nil {
		return sheeterr.InvalidArgument("sheet factory is required")
	}
	if cfg.Label == "" {
		return sheeterr.InvalidArgument("sheet label is required")
	}
	if len(cfg.Types) == 0 {
		return sheeterr.InvalidArgumentf("sheet %q must apply to at least one actor type", cfg.Label)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sheet[namespace] {
		if existing.Label == cfg.Label {
			return sheeterr.AlreadyExistsf("sheet %q is already registered for %s", cfg.Label, namespace).
				WithMeta("namespace", namespace)
		}
	}

	r.sheet[namespace] = append(r.sheet[namespace], &Registration{
		Namespace:   namespace,
		Label:       cfg.Label,
		Types:       append([]actor.Kind(nil), cfg.Types...),
		MakeDefault: cfg.MakeDefault,
		Factory:     factory,
	})

	log.Printf("Sheets: registered %q for %s %v (default=%t)", cfg.Label, namespace, cfg.Types, cfg.MakeDefault)
	return nil
}

// SheetsFor returns the registrations of namespace that apply to kind, in
// registration order
func (r *Registry) SheetsFor(namespace string, kind actor.Kind) []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Registration
	for _, reg := range r.sheet[namespace] {
		if reg.Applies(kind) {
			out = append(out, reg)
		}
	}
	return out
}

// Namespaces returns every namespace with at least one registration
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.sheet))
	for ns := range r.sheet {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the sheet for kind: the preferred label when it applies,
// then the last registration marked default, then the first registered
func (r *Registry) Resolve(namespace string, kind actor.Kind, preferred string) (*Registration, error) {
	candidates := r.SheetsFor(namespace, kind)
	if len(candidates) == 0 {
		return nil, sheeterr.NotFoundf("no sheet registered for %s %s", namespace, kind)
	}

	if preferred != "" {
		for _, reg := range candidates {
			if reg.Label == preferred {
				return reg, nil
			}
		}
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].MakeDefault {
			return candidates[i], nil
		}
	}

	return candidates[0], nil
}
