package core

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
)

const unhandledMessage = "I don't know how to handle that command."

// Middleware wraps a handler
type Middleware func(Handler) Handler

// Pipeline dispatches interactions to the first registered handler that
// accepts them. Middleware added with Use wraps handlers registered after it.
type Pipeline struct {
	mu          sync.RWMutex
	handlers    []Handler
	middleware  []Middleware
	stopOnFirst bool
}

// NewPipeline creates an empty pipeline that stops at the first match
func NewPipeline() *Pipeline {
	return &Pipeline{stopOnFirst: true}
}

// Use adds middleware, outermost first
func (p *Pipeline) Use(middleware ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware...)
}

// Register wraps handlers in the current middleware and adds them
func (p *Pipeline) Register(handlers ...Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, h := range handlers {
		for i := len(p.middleware) - 1; i >= 0; i-- {
			h = p.middleware[i](h)
		}
		p.handlers = append(p.handlers, h)
	}
}

// SetStopOnFirst lets every matching handler run when stop is false
func (p *Pipeline) SetStopOnFirst(stop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopOnFirst = stop
}

// Clear removes all handlers
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = nil
}

// HandlerCount returns the number of registered handlers
func (p *Pipeline) HandlerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

// Execute runs the pipeline for a gateway interaction event
func (p *Pipeline) Execute(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return p.Dispatch(NewInteractionContext(ctx, s, i), NewDiscordResponder(s, i.Interaction))
}

// Dispatch runs the matching handlers for ic and sends their responses
// through responder. Handler errors that reach this point become ephemeral
// replies; only a failure to respond is returned.
func (p *Pipeline) Dispatch(ic *InteractionContext, responder InteractionResponder) error {
	ic.WithResponder(responder)
	handlers, stopOnFirst := p.snapshot()

	handled := false
	for _, handler := range handlers {
		if !handler.CanHandle(ic) {
			continue
		}
		handled = true
		log.Printf("[Pipeline] handling %s", describe(ic))

		result, err := handler.Handle(ic)
		if err != nil {
			result = errorResult(err)
		}
		if err := send(responder, result); err != nil {
			return fmt.Errorf("failed to send response: %w", err)
		}

		if stopOnFirst || (result != nil && result.StopPropagation) {
			break
		}
	}

	if !handled && !responder.HasResponded() {
		log.Printf("[Pipeline] no handler for %s", describe(ic))
		return responder.Respond(NewEphemeralResponse(unhandledMessage))
	}
	return nil
}

func (p *Pipeline) snapshot() ([]Handler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Handler(nil), p.handlers...), p.stopOnFirst
}

func errorResult(err error) *HandlerResult {
	handlerErr := FromError(err)
	message := handlerErr.UserMessage
	if !handlerErr.ShowToUser || message == "" {
		message = internalMessage
	}
	return &HandlerResult{Response: NewEphemeralResponse(message)}
}

func send(responder InteractionResponder, result *HandlerResult) error {
	if result == nil || result.Response == nil {
		return nil
	}
	if result.Response.Modal == nil && (result.Deferred || responder.IsDeferred()) {
		return responder.Edit(result.Response)
	}
	return responder.Respond(result.Response)
}

// describe renders the routing key of an interaction for logs
func describe(ic *InteractionContext) string {
	switch {
	case ic.IsCommand():
		if sub := ic.GetSubcommand(); sub != "" {
			return "/" + ic.GetCommandName() + " " + sub
		}
		return "/" + ic.GetCommandName()
	case ic.IsComponent():
		return "component " + ic.GetCustomID()
	case ic.IsModal():
		return "modal " + ic.GetCustomID()
	default:
		return "unknown interaction"
	}
}
