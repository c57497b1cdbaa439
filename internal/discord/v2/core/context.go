package core

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

type contextKey string

const responderKey contextKey = "responder"

// InteractionContext wraps a Discord interaction with the parsed parameters
// the sheet handlers need
type InteractionContext struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate

	UserID    string
	UserName  string
	GuildID   string
	ChannelID string

	// Context carries cancellation plus request scoped values such as the
	// responder and notification sink
	Context context.Context

	params map[string]interface{}
	fields map[string]string
}

// NewInteractionContext creates a new InteractionContext from a Discord interaction
func NewInteractionContext(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *InteractionContext {
	ic := &InteractionContext{
		Session:     s,
		Interaction: i,
		Context:     ctx,
		params:      make(map[string]interface{}),
		fields:      make(map[string]string),
	}

	if i.Member != nil && i.Member.User != nil {
		ic.UserID = i.Member.User.ID
		ic.UserName = i.Member.User.Username
		if i.Member.Nick != "" {
			ic.UserName = i.Member.Nick
		}
	} else if i.User != nil {
		ic.UserID = i.User.ID
		ic.UserName = i.User.Username
	}

	ic.GuildID = i.GuildID
	ic.ChannelID = i.ChannelID

	ic.parseParams()

	return ic
}

func (ic *InteractionContext) parseParams() {
	switch ic.Interaction.Type {
	case discordgo.InteractionApplicationCommand:
		ic.parseOptions(ic.Interaction.ApplicationCommandData().Options)
	case discordgo.InteractionMessageComponent:
		ic.params["custom_id"] = ic.Interaction.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		ic.parseModalFields()
	}
}

// parseOptions flattens slash command options. Subcommands are recognized by
// type so that a subcommand without options still routes.
func (ic *InteractionContext) parseOptions(options []*discordgo.ApplicationCommandInteractionDataOption) {
	for _, opt := range options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			ic.params["subcommand"] = opt.Name
			ic.parseOptions(opt.Options)
		default:
			ic.params[opt.Name] = opt.Value
		}
	}
}

// parseModalFields collects text input values keyed by their custom id
func (ic *InteractionContext) parseModalFields() {
	data := ic.Interaction.ModalSubmitData()
	ic.params["custom_id"] = data.CustomID

	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				ic.fields[input.CustomID] = input.Value
			}
		}
	}
}

// GetParam retrieves a parameter by name
func (ic *InteractionContext) GetParam(name string) interface{} {
	return ic.params[name]
}

// GetStringParam retrieves a string parameter or returns empty string
func (ic *InteractionContext) GetStringParam(name string) string {
	if val, ok := ic.params[name]; ok {
		if strVal, ok := val.(string); ok {
			return strings.TrimSpace(strVal)
		}
	}
	return ""
}

// GetIntParam retrieves an int parameter or returns 0
func (ic *InteractionContext) GetIntParam(name string) int {
	if val, ok := ic.params[name]; ok {
		switch v := val.(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		}
	}
	return 0
}

// ModalFields returns the submitted text inputs of a modal, keyed by input id
func (ic *InteractionContext) ModalFields() map[string]string {
	copied := make(map[string]string, len(ic.fields))
	for k, v := range ic.fields {
		copied[k] = v
	}
	return copied
}

// IsCommand checks if this is a slash command interaction
func (ic *InteractionContext) IsCommand() bool {
	return ic.Interaction != nil && ic.Interaction.Type == discordgo.InteractionApplicationCommand
}

// IsComponent checks if this is a message component interaction
func (ic *InteractionContext) IsComponent() bool {
	return ic.Interaction != nil && ic.Interaction.Type == discordgo.InteractionMessageComponent
}

// IsModal checks if this is a modal submit interaction
func (ic *InteractionContext) IsModal() bool {
	return ic.Interaction != nil && ic.Interaction.Type == discordgo.InteractionModalSubmit
}

// GetCustomID returns the custom ID for component and modal interactions
func (ic *InteractionContext) GetCustomID() string {
	if ic.IsComponent() || ic.IsModal() {
		return ic.GetStringParam("custom_id")
	}
	return ""
}

// GetCommandName returns the command name for slash commands
func (ic *InteractionContext) GetCommandName() string {
	if ic.IsCommand() {
		return ic.Interaction.ApplicationCommandData().Name
	}
	return ""
}

// GetSubcommand returns the subcommand name if present
func (ic *InteractionContext) GetSubcommand() string {
	return ic.GetStringParam("subcommand")
}

// WithValue adds a value to the context
func (ic *InteractionContext) WithValue(key, val interface{}) {
	ic.Context = context.WithValue(ic.Context, key, val)
}

// Value retrieves a value from the context
func (ic *InteractionContext) Value(key interface{}) interface{} {
	return ic.Context.Value(key)
}

// WithResponder attaches the responder used for this interaction
func (ic *InteractionContext) WithResponder(r InteractionResponder) {
	ic.WithValue(responderKey, r)
}

// Responder returns the responder attached to this interaction, if any
func (ic *InteractionContext) Responder() (InteractionResponder, bool) {
	r, ok := ic.Value(responderKey).(InteractionResponder)
	return r, ok
}
