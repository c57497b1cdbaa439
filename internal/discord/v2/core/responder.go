package core

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// InteractionResponder provides an abstraction over Discord's interaction response API
type InteractionResponder interface {
	// Defer sends a deferred response, optionally ephemeral
	Defer(ephemeral bool) error

	// Respond sends an immediate response
	Respond(response *Response) error

	// Edit updates a previous response (after defer or respond)
	Edit(response *Response) error

	// FollowUp sends an additional message after the initial response
	FollowUp(response *Response) (*discordgo.Message, error)

	HasResponded() bool
	IsDeferred() bool
}

// InteractionAPI is the part of *discordgo.Session the responder calls
type InteractionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordResponder implements InteractionResponder using Discord's API
type DiscordResponder struct {
	api         InteractionAPI
	interaction *discordgo.Interaction
	responded   bool
	deferred    bool
}

// NewDiscordResponder creates a new Discord responder
func NewDiscordResponder(api InteractionAPI, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		api:         api,
		interaction: i,
	}
}

// Defer sends a deferred response
func (r *DiscordResponder) Defer(ephemeral bool) error {
	if r.responded || r.deferred {
		return fmt.Errorf("interaction already responded to")
	}

	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
	if err == nil {
		r.deferred = true
		r.responded = true
	}

	return err
}

// Respond sends an immediate response. A modal can only be the first
// response to an interaction.
func (r *DiscordResponder) Respond(response *Response) error {
	if response.Modal != nil {
		if r.responded {
			return fmt.Errorf("modal must be the first response")
		}
		return r.send(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID:   response.Modal.CustomID,
				Title:      response.Modal.Title,
				Components: response.Modal.Components(),
			},
		})
	}

	if r.responded {
		return r.Edit(response)
	}

	responseType := discordgo.InteractionResponseChannelMessageWithSource
	if response.Update && r.interaction.Type == discordgo.InteractionMessageComponent {
		responseType = discordgo.InteractionResponseUpdateMessage
	}

	return r.send(&discordgo.InteractionResponse{
		Type: responseType,
		Data: buildResponseData(response),
	})
}

func (r *DiscordResponder) send(resp *discordgo.InteractionResponse) error {
	err := r.api.InteractionRespond(r.interaction, resp)
	if err == nil {
		r.responded = true
	}
	return err
}

// Edit updates a previous response
func (r *DiscordResponder) Edit(response *Response) error {
	if !r.responded {
		return fmt.Errorf("cannot edit before responding")
	}

	webhook := &discordgo.WebhookEdit{
		Content:         &response.Content,
		Embeds:          &response.Embeds,
		Components:      &response.Components,
		AllowedMentions: response.AllowedMentions,
	}

	_, err := r.api.InteractionResponseEdit(r.interaction, webhook)
	return err
}

// FollowUp sends an additional message after the initial response
func (r *DiscordResponder) FollowUp(response *Response) (*discordgo.Message, error) {
	if !r.responded {
		return nil, fmt.Errorf("cannot follow up before responding")
	}

	params := &discordgo.WebhookParams{
		Content:         response.Content,
		Embeds:          response.Embeds,
		Components:      response.Components,
		AllowedMentions: response.AllowedMentions,
	}
	if response.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	return r.api.FollowupMessageCreate(r.interaction, true, params)
}

// HasResponded returns whether this responder has already sent a response
func (r *DiscordResponder) HasResponded() bool {
	return r.responded
}

// IsDeferred returns whether this responder has sent a deferred response
func (r *DiscordResponder) IsDeferred() bool {
	return r.deferred
}

func buildResponseData(response *Response) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:         response.Content,
		Embeds:          response.Embeds,
		Components:      response.Components,
		AllowedMentions: response.AllowedMentions,
	}

	if response.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return data
}
