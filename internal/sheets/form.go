package sheets

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// EventClick is the only interaction sheets bind today
const EventClick = "click"

// Control is an element of a rendered sheet that carries a CSS class
type Control struct {
	Tag     string
	Classes []string
	Label   string
	Data    map[string]string
	Parent  *Control
}

// HasClass reports whether the control carries class
func (c *Control) HasClass(class string) bool {
	for _, cl := range c.Classes {
		if cl == class {
			return true
		}
	}
	return false
}

// Closest returns the nearest control, starting with c itself, that matches
// selector
func (c *Control) Closest(selector string) *Control {
	class, ok := classSelector(selector)
	if !ok {
		return nil
	}
	for cur := c; cur != nil; cur = cur.Parent {
		if cur.HasClass(class) {
			return cur
		}
	}
	return nil
}

// DataValue returns the data attribute key of c, or of its nearest ancestor
// carrying it
func (c *Control) DataValue(key string) (string, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if v, ok := cur.Data[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Event is a dispatched interaction
type Event struct {
	Type       string
	ActorID    string
	Control    *Control
	Submission Submission

	defaultPrevented bool
}

// PreventDefault marks the host's default handling as suppressed
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a handler called PreventDefault
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Handler reacts to an event on a control
type Handler func(ctx context.Context, ev *Event) error

// Form is a rendered sheet: its controls, its input values and the
// handlers bound to them
type Form struct {
	// ActorID is the actor the form was rendered for
	ActorID string

	controls []*Control
	values   map[string]string

	mu       sync.RWMutex
	handlers map[*Control]map[string][]Handler
}

// NewForm creates a form over controls. values holds the form's named
// input values as rendered.
func NewForm(controls []*Control, values map[string]string) *Form {
	if values == nil {
		values = make(map[string]string)
	}
	return &Form{
		controls: controls,
		values:   values,
		handlers: make(map[*Control]map[string][]Handler),
	}
}

// Controls returns every control in document order
func (f *Form) Controls() []*Control {
	return f.controls
}

// Values returns the rendered input values keyed by input name
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Find returns the controls matching a ".class" selector
func (f *Form) Find(selector string) *Selection {
	sel := &Selection{form: f}
	class, ok := classSelector(selector)
	if !ok {
		return sel
	}
	for _, c := range f.controls {
		if c.HasClass(class) {
			sel.controls = append(sel.controls, c)
		}
	}
	return sel
}

// Bound returns the controls that have at least one handler for event, in
// document order
func (f *Form) Bound(event string) []*Control {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*Control
	for _, c := range f.controls {
		if len(f.handlers[c][event]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Trigger dispatches event on c to every handler bound to it, in binding
// order, stopping at the first error
func (f *Form) Trigger(ctx context.Context, c *Control, event string, sub Submission) error {
	if c == nil {
		return errors.New("no control to trigger")
	}

	f.mu.RLock()
	handlers := append([]Handler(nil), f.handlers[c][event]...)
	f.mu.RUnlock()

	ev := &Event{Type: event, ActorID: f.ActorID, Control: c, Submission: sub}
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (f *Form) bind(c *Control, event string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.handlers[c] == nil {
		f.handlers[c] = make(map[string][]Handler)
	}
	f.handlers[c][event] = append(f.handlers[c][event], h)
}

// Selection is the result of Form.Find
type Selection struct {
	form     *Form
	controls []*Control
}

// On binds h to event on every selected control
func (s *Selection) On(event string, h Handler) *Selection {
	for _, c := range s.controls {
		s.form.bind(c, event, h)
	}
	return s
}

// Len returns how many controls were selected
func (s *Selection) Len() int {
	return len(s.controls)
}

// Controls returns the selected controls
func (s *Selection) Controls() []*Control {
	return s.controls
}

// First returns the first selected control, or nil
func (s *Selection) First() *Control {
	if len(s.controls) == 0 {
		return nil
	}
	return s.controls[0]
}

func classSelector(selector string) (string, bool) {
	selector = strings.TrimSpace(selector)
	if !strings.HasPrefix(selector, ".") || len(selector) < 2 {
		return "", false
	}
	return selector[1:], true
}
