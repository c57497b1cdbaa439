package core

import (
	"context"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// TestInteractionContext builds an InteractionContext for handler tests
type TestInteractionContext struct {
	*InteractionContext
}

// NewTestInteractionContext creates a test interaction context
func NewTestInteractionContext() *TestInteractionContext {
	ctx := &InteractionContext{
		Context:   context.Background(),
		UserID:    "test-user-123",
		UserName:  "Ash",
		GuildID:   "test-guild-123",
		ChannelID: "test-channel-123",
		params:    make(map[string]interface{}),
		fields:    make(map[string]string),
	}

	return &TestInteractionContext{InteractionContext: ctx}
}

// WithParam adds a parameter for testing
func (t *TestInteractionContext) WithParam(key string, value interface{}) *TestInteractionContext {
	t.params[key] = value
	return t
}

// WithUserID sets the user ID
func (t *TestInteractionContext) WithUserID(userID string) *TestInteractionContext {
	t.UserID = userID
	return t
}

// WithChannelID sets the channel ID
func (t *TestInteractionContext) WithChannelID(channelID string) *TestInteractionContext {
	t.ChannelID = channelID
	return t
}

// WithContext replaces the request context
func (t *TestInteractionContext) WithContext(ctx context.Context) *TestInteractionContext {
	t.Context = ctx
	return t
}

// AsCommand simulates a command interaction
func (t *TestInteractionContext) AsCommand(name string, subcommand ...string) *TestInteractionContext {
	t.Interaction = &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: name,
			},
		},
	}

	if len(subcommand) > 0 {
		t.params["subcommand"] = subcommand[0]
	}

	return t
}

// AsComponent simulates a component interaction
func (t *TestInteractionContext) AsComponent(customID string) *TestInteractionContext {
	t.Interaction = &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID: customID,
			},
		},
	}
	t.params["custom_id"] = customID
	return t
}

// AsModal simulates a modal submission with the given text input values
func (t *TestInteractionContext) AsModal(customID string, values map[string]string) *TestInteractionContext {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]discordgo.MessageComponent, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, &discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: id, Value: values[id]},
			},
		})
	}

	t.Interaction = &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionModalSubmit,
			Data: discordgo.ModalSubmitInteractionData{
				CustomID:   customID,
				Components: rows,
			},
		},
	}
	t.params["custom_id"] = customID
	t.parseModalFields()
	return t
}

// MockResponder is a test implementation of InteractionResponder
type MockResponder struct {
	DeferCalls   []bool
	Responses    []*Response
	Edits        []*Response
	FollowUps    []*Response
	DeferError   error
	RespondError error
	EditError    error
	Deferred     bool
	Responded    bool
}

// NewMockResponder creates a new mock responder
func NewMockResponder() *MockResponder {
	return &MockResponder{
		DeferCalls: make([]bool, 0),
		Responses:  make([]*Response, 0),
		Edits:      make([]*Response, 0),
		FollowUps:  make([]*Response, 0),
	}
}

func (m *MockResponder) Defer(ephemeral bool) error {
	m.DeferCalls = append(m.DeferCalls, ephemeral)
	m.Deferred = true
	m.Responded = true
	return m.DeferError
}

func (m *MockResponder) Respond(response *Response) error {
	m.Responses = append(m.Responses, response)
	m.Responded = true
	return m.RespondError
}

func (m *MockResponder) Edit(response *Response) error {
	m.Edits = append(m.Edits, response)
	return m.EditError
}

func (m *MockResponder) FollowUp(response *Response) (*discordgo.Message, error) {
	m.FollowUps = append(m.FollowUps, response)
	return &discordgo.Message{ID: "test-message-123"}, nil
}

func (m *MockResponder) HasResponded() bool {
	return m.Responded
}

func (m *MockResponder) IsDeferred() bool {
	return m.Deferred
}

// LastResponse returns the last response sent
func (m *MockResponder) LastResponse() *Response {
	if len(m.Edits) > 0 {
		return m.Edits[len(m.Edits)-1]
	}
	if len(m.Responses) > 0 {
		return m.Responses[len(m.Responses)-1]
	}
	return nil
}
