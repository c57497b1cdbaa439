package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CustomIDSeparator is the character used to separate parts
	CustomIDSeparator = ":"

	// MaxCustomIDLength is Discord's limit for custom IDs
	MaxCustomIDLength = 100
)

// CustomID is a parsed component or modal id of the form
// domain:action[:target[:args...]]
type CustomID struct {
	// Domain routes the interaction to a router
	Domain string

	// Action picks the handler inside the router (e.g. "save", "roll")
	Action string

	// Target is the primary target of the action, usually an actor id
	Target string

	// Args are additional positional arguments
	Args []string
}

// NewCustomID creates a new CustomID
func NewCustomID(domain, action string) *CustomID {
	return &CustomID{
		Domain: domain,
		Action: action,
		Args:   make([]string, 0),
	}
}

// WithTarget sets the target
func (c *CustomID) WithTarget(target string) *CustomID {
	c.Target = target
	return c
}

// WithArgs adds arguments
func (c *CustomID) WithArgs(args ...string) *CustomID {
	c.Args = append(c.Args, args...)
	return c
}

// Encode converts the CustomID to a string
func (c *CustomID) Encode() (string, error) {
	if c.Domain == "" || c.Action == "" {
		return "", fmt.Errorf("custom ID requires domain and action")
	}

	parts := []string{c.Domain, c.Action}
	if c.Target != "" || len(c.Args) > 0 {
		parts = append(parts, c.Target)
	}
	parts = append(parts, c.Args...)

	for _, p := range parts {
		if strings.Contains(p, CustomIDSeparator) {
			return "", fmt.Errorf("custom ID part %q contains %q", p, CustomIDSeparator)
		}
	}

	result := strings.Join(parts, CustomIDSeparator)
	if len(result) > MaxCustomIDLength {
		return "", fmt.Errorf("custom ID exceeds maximum length of %d characters", MaxCustomIDLength)
	}

	return result, nil
}

// MustEncode is like Encode but panics on error
func (c *CustomID) MustEncode() string {
	result, err := c.Encode()
	if err != nil {
		panic(err)
	}
	return result
}

// Arg returns the positional argument at i, or "" when absent
func (c *CustomID) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// IntArg parses the positional argument at i as an integer
func (c *CustomID) IntArg(i int) (int, error) {
	return strconv.Atoi(c.Arg(i))
}

// ParseCustomID parses a custom ID string
func ParseCustomID(customID string) (*CustomID, error) {
	if customID == "" {
		return nil, fmt.Errorf("empty custom ID")
	}

	parts := strings.Split(customID, CustomIDSeparator)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid custom ID format: expected at least domain:action")
	}

	result := NewCustomID(parts[0], parts[1])
	if len(parts) > 2 {
		result.Target = parts[2]
		result.Args = append(result.Args, parts[3:]...)
	}

	return result, nil
}

// CustomIDBuilder builds custom IDs for a single domain
type CustomIDBuilder struct {
	domain string
}

// NewCustomIDBuilder creates a new builder for a domain
func NewCustomIDBuilder(domain string) *CustomIDBuilder {
	return &CustomIDBuilder{domain: domain}
}

// Domain returns the domain ids are built for
func (b *CustomIDBuilder) Domain() string {
	return b.domain
}

// Build creates a CustomID for an action
func (b *CustomIDBuilder) Build(action string) *CustomID {
	return NewCustomID(b.domain, action)
}

// Button creates a button custom ID
func (b *CustomIDBuilder) Button(action, target string, args ...string) (string, error) {
	return NewCustomID(b.domain, action).
		WithTarget(target).
		WithArgs(args...).
		Encode()
}

// Modal creates a modal custom ID
func (b *CustomIDBuilder) Modal(action, target string) (string, error) {
	return NewCustomID(b.domain, action).
		WithTarget(target).
		Encode()
}
