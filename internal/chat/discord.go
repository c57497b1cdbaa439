package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

// ChannelSender is the slice of *discordgo.Session the Discord log needs
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type channelKey struct{}

// WithChannel binds the Discord channel messages posted under ctx go to
func WithChannel(ctx context.Context, channelID string) context.Context {
	return context.WithValue(ctx, channelKey{}, channelID)
}

// ChannelFrom returns the channel bound by WithChannel
func ChannelFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(channelKey{}).(string)
	return id, ok && id != ""
}

// DiscordLog posts chat messages into the Discord channel bound to the
// request context
type DiscordLog struct {
	sender  ChannelSender
	stamper stamper
}

// NewDiscordLog creates a chat log backed by Discord channel messages
func NewDiscordLog(sender ChannelSender, ids uuid.Generator) *DiscordLog {
	return &DiscordLog{sender: sender, stamper: newStamper(ids, nil)}
}

// Post implements Log
func (d *DiscordLog) Post(ctx context.Context, msg *Message) error {
	if msg == nil {
		return sheeterr.InvalidArgument("chat message is required")
	}

	channelID, ok := ChannelFrom(ctx)
	if !ok {
		return sheeterr.InvalidArgument("no chat channel bound to the request")
	}

	d.stamper.stamp(msg)
	if _, err := d.sender.ChannelMessageSendEmbed(channelID, Embed(msg)); err != nil {
		return sheeterr.Wrapf(err, "failed to post chat message to channel %s", channelID)
	}
	return nil
}

// Embed renders a chat message as a Discord embed
func Embed(msg *Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Type:   discordgo.EmbedTypeRich,
		Title:  msg.Flavor,
		Author: &discordgo.MessageEmbedAuthor{Name: msg.Speaker.Alias},
		Color:  0x7289da,
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.Format(time.RFC3339)
	}

	if !msg.IsRoll() {
		embed.Description = msg.Content
		return embed
	}

	rolls := make([]string, len(msg.Rolls))
	for i, r := range msg.Rolls {
		rolls[i] = fmt.Sprintf("%d", r)
	}
	embed.Description = fmt.Sprintf("🎲 `%s`", msg.Formula)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Rolls", Value: "[" + strings.Join(rolls, ", ") + "]", Inline: true},
		{Name: "Total", Value: fmt.Sprintf("**%d**", msg.Total), Inline: true},
	}
	return embed
}
