package builders

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects empty field values and caps them at 1024 characters
const (
	emptyFieldValue = "None"
	maxFieldValue   = 1024
)

// EmbedBuilder provides a fluent API for building Discord embeds
type EmbedBuilder struct {
	embed *discordgo.MessageEmbed
}

// NewEmbed creates a new embed builder
func NewEmbed() *EmbedBuilder {
	return &EmbedBuilder{
		embed: &discordgo.MessageEmbed{
			Type:   discordgo.EmbedTypeRich,
			Fields: make([]*discordgo.MessageEmbedField, 0),
		},
	}
}

// Title sets the embed title
func (b *EmbedBuilder) Title(title string) *EmbedBuilder {
	b.embed.Title = title
	return b
}

// Description sets the embed description
func (b *EmbedBuilder) Description(description string) *EmbedBuilder {
	b.embed.Description = description
	return b
}

// Color sets the embed color
func (b *EmbedBuilder) Color(color int) *EmbedBuilder {
	b.embed.Color = color
	return b
}

// Timestamp sets the embed timestamp
func (b *EmbedBuilder) Timestamp(timestamp time.Time) *EmbedBuilder {
	b.embed.Timestamp = timestamp.Format(time.RFC3339)
	return b
}

// Footer sets the embed footer
func (b *EmbedBuilder) Footer(text string) *EmbedBuilder {
	b.embed.Footer = &discordgo.MessageEmbedFooter{
		Text: text,
	}
	return b
}

// Author sets the embed author
func (b *EmbedBuilder) Author(name string) *EmbedBuilder {
	b.embed.Author = &discordgo.MessageEmbedAuthor{
		Name: name,
	}
	return b
}

// Field adds a field to the embed. Empty values are replaced and long ones
// truncated so Discord accepts the embed.
func (b *EmbedBuilder) Field(name, value string, inline bool) *EmbedBuilder {
	value = strings.TrimSpace(value)
	if value == "" {
		value = emptyFieldValue
	}
	value = Truncate(value, maxFieldValue)

	b.embed.Fields = append(b.embed.Fields, &discordgo.MessageEmbedField{
		Name:   name,
		Value:  value,
		Inline: inline,
	})
	return b
}

// Build returns the constructed embed
func (b *EmbedBuilder) Build() *discordgo.MessageEmbed {
	return b.embed
}

// Common embed colors
const (
	ColorSuccess = 0x00ff00
	ColorError   = 0xff0000
	ColorWarning = 0xffaa00
	ColorInfo    = 0x0099ff
	ColorPrimary = 0x7289da
	ColorPokemon = 0xffcb05
)

// SuccessEmbed creates a pre-styled success embed
func SuccessEmbed(title, description string) *EmbedBuilder {
	return NewEmbed().
		Title("✅ " + title).
		Description(description).
		Color(ColorSuccess)
}

// WarningEmbed creates a pre-styled warning embed
func WarningEmbed(title, description string) *EmbedBuilder {
	return NewEmbed().
		Title("⚠️ " + title).
		Description(description).
		Color(ColorWarning)
}

// InfoEmbed creates a pre-styled info embed
func InfoEmbed(title, description string) *EmbedBuilder {
	return NewEmbed().
		Title("ℹ️ " + title).
		Description(description).
		Color(ColorInfo)
}

// SheetEmbedBuilder renders a Pokémon sheet summary
type SheetEmbedBuilder struct {
	*EmbedBuilder
}

// NewSheetEmbed creates a sheet embed
func NewSheetEmbed() *SheetEmbedBuilder {
	return &SheetEmbedBuilder{
		EmbedBuilder: NewEmbed().Color(ColorPokemon),
	}
}

// SetActor sets the title line from the actor's name and level
func (b *SheetEmbedBuilder) SetActor(name string, level int) *SheetEmbedBuilder {
	if name == "" {
		name = "Unnamed"
	}
	b.Title(name)
	b.Description(fmt.Sprintf("Level %d", level))
	return b
}

// AddTraits adds the nature and type fields
func (b *SheetEmbedBuilder) AddTraits(nature string, types []string) *SheetEmbedBuilder {
	b.Field("Nature", nature, true)
	b.Field("Types", strings.Join(types, ", "), true)
	return b
}

// AddMoves adds a numbered move list
func (b *SheetEmbedBuilder) AddMoves(moves []string) *SheetEmbedBuilder {
	lines := make([]string, 0, len(moves))
	for i, m := range moves {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, m))
	}
	b.Field("Moves", strings.Join(lines, "\n"), false)
	return b
}
