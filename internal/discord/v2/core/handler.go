package core

import (
	"github.com/bwmarrin/discordgo"
)

// Handler defines the interface for all interaction handlers
type Handler interface {
	// CanHandle determines if this handler should process the interaction
	CanHandle(ctx *InteractionContext) bool

	// Handle processes the interaction and returns a result
	Handle(ctx *InteractionContext) (*HandlerResult, error)
}

// HandlerFunc allows functions to implement the Handler interface
type HandlerFunc func(ctx *InteractionContext) (*HandlerResult, error)

// CanHandle for HandlerFunc always returns true
func (f HandlerFunc) CanHandle(ctx *InteractionContext) bool {
	return true
}

// Handle calls the function
func (f HandlerFunc) Handle(ctx *InteractionContext) (*HandlerResult, error) {
	return f(ctx)
}

// HandlerResult contains the response and metadata from a handler
type HandlerResult struct {
	Response *Response

	// Whether the response was already deferred
	Deferred bool

	// Whether to stop processing further handlers
	StopPropagation bool

	// Additional context to pass to middleware
	Context map[string]interface{}
}

// TextField is a single text input of a modal
type TextField struct {
	ID          string
	Label       string
	Value       string
	Placeholder string
	Paragraph   bool
	Required    bool
	MaxLength   int
}

// Modal is a popup form shown in reply to a component or command
type Modal struct {
	CustomID string
	Title    string
	Fields   []TextField
}

// Response represents a Discord-agnostic response
type Response struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent

	// Whether this response should be ephemeral (only visible to the user)
	Ephemeral bool

	// Whether to update the message the component was attached to
	Update bool

	// Modal replaces the message response with a popup form
	Modal *Modal

	AllowedMentions *discordgo.MessageAllowedMentions
}

// NewResponse creates a new response with the given content
func NewResponse(content string) *Response {
	return &Response{
		Content: content,
	}
}

// NewEphemeralResponse creates a new ephemeral response
func NewEphemeralResponse(content string) *Response {
	return &Response{
		Content:   content,
		Ephemeral: true,
	}
}

// NewEmbedResponse creates a response with an embed
func NewEmbedResponse(embed *discordgo.MessageEmbed) *Response {
	return &Response{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
}

// NewModalResponse creates a response that opens a modal
func NewModalResponse(modal *Modal) *Response {
	return &Response{
		Modal: modal,
	}
}

// WithComponents adds components to the response
func (r *Response) WithComponents(components ...discordgo.MessageComponent) *Response {
	r.Components = components
	return r
}

// WithEmbeds adds embeds to the response
func (r *Response) WithEmbeds(embeds ...*discordgo.MessageEmbed) *Response {
	r.Embeds = embeds
	return r
}

// AsEphemeral sets the response to be ephemeral
func (r *Response) AsEphemeral() *Response {
	r.Ephemeral = true
	return r
}

// AsUpdate sets the response to update the original message
func (r *Response) AsUpdate() *Response {
	r.Update = true
	return r
}

// Components converts the modal fields into action rows, one input per row
func (m *Modal) Components() []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, len(m.Fields))
	for _, f := range m.Fields {
		style := discordgo.TextInputShort
		if f.Paragraph {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    f.ID,
					Label:       f.Label,
					Style:       style,
					Value:       f.Value,
					Placeholder: f.Placeholder,
					Required:    f.Required,
					MaxLength:   f.MaxLength,
				},
			},
		})
	}
	return rows
}
