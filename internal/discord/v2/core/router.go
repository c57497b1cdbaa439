package core

// routeKind separates slash commands from button and modal ids
type routeKind int

const (
	routeCommand routeKind = iota
	routeComponent
	routeModal
)

// anyAction matches every component or modal action of a router
const anyAction = "*"

type route struct {
	kind routeKind
	name string
}

// Router groups the handlers of one slash command. The command name doubles
// as the custom id domain, so buttons and modals it builds route back here.
type Router struct {
	domain     string
	routes     map[route]Handler
	middleware []Middleware
	ids        *CustomIDBuilder
	pipeline   *Pipeline
}

// NewRouter creates a router for a command. pipeline may be nil when the
// router is only built into a handler.
func NewRouter(domain string, pipeline *Pipeline) *Router {
	return &Router{
		domain:   domain,
		routes:   make(map[route]Handler),
		ids:      NewCustomIDBuilder(domain),
		pipeline: pipeline,
	}
}

// Use adds middleware applied to handlers registered after the call
func (r *Router) Use(middleware ...Middleware) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) add(key route, handler Handler) *Router {
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	r.routes[key] = handler
	return r
}

// SubcommandFunc handles /<domain> <sub>. An empty sub handles the bare command.
func (r *Router) SubcommandFunc(sub string, fn func(*InteractionContext) (*HandlerResult, error)) *Router {
	return r.add(route{kind: routeCommand, name: sub}, HandlerFunc(fn))
}

// ComponentFunc handles buttons whose custom id carries action
func (r *Router) ComponentFunc(action string, fn func(*InteractionContext) (*HandlerResult, error)) *Router {
	return r.add(route{kind: routeComponent, name: action}, HandlerFunc(fn))
}

// ModalFunc handles modal submissions whose custom id carries action
func (r *Router) ModalFunc(action string, fn func(*InteractionContext) (*HandlerResult, error)) *Router {
	return r.add(route{kind: routeModal, name: action}, HandlerFunc(fn))
}

// IDs returns the custom id builder for this router's domain
func (r *Router) IDs() *CustomIDBuilder {
	return r.ids
}

// Build freezes the routes into one handler
func (r *Router) Build() Handler {
	routes := make(map[route]Handler, len(r.routes))
	for k, h := range r.routes {
		routes[k] = h
	}
	return &routerHandler{domain: r.domain, routes: routes}
}

// Register adds the built router to the pipeline
func (r *Router) Register() {
	if r.pipeline != nil {
		r.pipeline.Register(r.Build())
	}
}

type routerHandler struct {
	domain string
	routes map[route]Handler
}

func (h *routerHandler) CanHandle(ctx *InteractionContext) bool {
	_, ok := h.lookup(ctx)
	return ok
}

func (h *routerHandler) Handle(ctx *InteractionContext) (*HandlerResult, error) {
	handler, ok := h.lookup(ctx)
	if !ok {
		return nil, NewNotFoundError("handler")
	}
	return handler.Handle(ctx)
}

func (h *routerHandler) lookup(ctx *InteractionContext) (Handler, bool) {
	key, ok := h.routeFor(ctx)
	if !ok {
		return nil, false
	}
	if handler, ok := h.routes[key]; ok {
		return handler, true
	}
	if key.kind == routeCommand {
		return nil, false
	}
	handler, ok := h.routes[route{kind: key.kind, name: anyAction}]
	return handler, ok
}

func (h *routerHandler) routeFor(ctx *InteractionContext) (route, bool) {
	var kind routeKind
	switch {
	case ctx.IsCommand():
		if ctx.GetCommandName() != h.domain {
			return route{}, false
		}
		return route{kind: routeCommand, name: ctx.GetSubcommand()}, true
	case ctx.IsComponent():
		kind = routeComponent
	case ctx.IsModal():
		kind = routeModal
	default:
		return route{}, false
	}

	id, err := ParseCustomID(ctx.GetCustomID())
	if err != nil || id.Domain != h.domain {
		return route{}, false
	}
	return route{kind: kind, name: id.Action}, true
}
