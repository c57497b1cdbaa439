// Package notify carries user-facing info and warning notifications.
package notify

import (
	"context"
	"log"
	"sync"
)

// Level is the severity of a notification
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Notification is a single message shown to the user
type Notification struct {
	Level   Level
	Message string
}

// Sink receives notifications
type Sink interface {
	Info(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
}

// Collector records notifications so a caller can surface them later,
// e.g. as an ephemeral interaction reply
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Info implements Sink
func (c *Collector) Info(_ context.Context, message string) {
	c.add(LevelInfo, message)
}

// Warn implements Sink
func (c *Collector) Warn(_ context.Context, message string) {
	c.add(LevelWarn, message)
}

func (c *Collector) add(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Notification{Level: level, Message: message})
}

// All returns a copy of everything recorded so far
func (c *Collector) All() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

// Warnings returns only the warning messages
func (c *Collector) Warnings() []string {
	return c.messages(LevelWarn)
}

// Infos returns only the info messages
func (c *Collector) Infos() []string {
	return c.messages(LevelInfo)
}

func (c *Collector) messages(level Level) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for _, n := range c.items {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// LogSink writes notifications to the standard logger
type LogSink struct{}

// Info implements Sink
func (LogSink) Info(_ context.Context, message string) {
	log.Printf("[Notify] info: %s", message)
}

// Warn implements Sink
func (LogSink) Warn(_ context.Context, message string) {
	log.Printf("[Notify] warn: %s", message)
}

type sinkKey struct{}

// WithSink scopes sink to ctx. Notifications raised through a Router while
// handling ctx go to it instead of the router's fallback.
func WithSink(ctx context.Context, sink Sink) context.Context {
	return context.WithValue(ctx, sinkKey{}, sink)
}

// Router sends each notification to the sink bound to the context, or to
// Fallback when none is bound
type Router struct {
	Fallback Sink
}

// Info implements Sink
func (r Router) Info(ctx context.Context, message string) {
	if s := r.pick(ctx); s != nil {
		s.Info(ctx, message)
	}
}

// Warn implements Sink
func (r Router) Warn(ctx context.Context, message string) {
	if s := r.pick(ctx); s != nil {
		s.Warn(ctx, message)
	}
}

func (r Router) pick(ctx context.Context) Sink {
	if s, ok := ctx.Value(sinkKey{}).(Sink); ok && s != nil {
		return s
	}
	return r.Fallback
}
