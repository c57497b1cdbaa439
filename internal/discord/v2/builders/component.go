package builders

import (
	"errors"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/bwmarrin/discordgo"
)

// Discord layout limits
const (
	MaxButtonsPerRow = 5
	MaxRows          = 5
	maxLabelLength   = 80
)

// ComponentBuilder builds Discord message components. Custom id failures are
// collected and reported by Build.
type ComponentBuilder struct {
	rows            []discordgo.MessageComponent
	currentRow      []discordgo.MessageComponent
	customIDBuilder *core.CustomIDBuilder
	errs            []error
}

// NewComponentBuilder creates a new component builder
func NewComponentBuilder(customIDBuilder *core.CustomIDBuilder) *ComponentBuilder {
	return &ComponentBuilder{
		rows:            make([]discordgo.MessageComponent, 0),
		currentRow:      make([]discordgo.MessageComponent, 0, MaxButtonsPerRow),
		customIDBuilder: customIDBuilder,
	}
}

// Button adds a button whose custom id is domain:action:target:args...
func (b *ComponentBuilder) Button(label string, style discordgo.ButtonStyle, action, target string, args ...string) *ComponentBuilder {
	customID, err := b.customIDBuilder.Button(action, target, args...)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}

	b.addComponent(discordgo.Button{
		Label:    Truncate(label, maxLabelLength),
		Style:    style,
		CustomID: customID,
	})
	return b
}

// EmojiButton adds a button with emoji
func (b *ComponentBuilder) EmojiButton(label, emoji string, style discordgo.ButtonStyle, action, target string, args ...string) *ComponentBuilder {
	before := len(b.currentRow)
	b.Button(label, style, action, target, args...)
	if len(b.currentRow) > before {
		button := b.currentRow[len(b.currentRow)-1].(discordgo.Button)
		button.Emoji = &discordgo.ComponentEmoji{Name: emoji}
		b.currentRow[len(b.currentRow)-1] = button
	}
	return b
}

// PrimaryButton adds a primary styled button
func (b *ComponentBuilder) PrimaryButton(label, action, target string, args ...string) *ComponentBuilder {
	return b.Button(label, discordgo.PrimaryButton, action, target, args...)
}

// SecondaryButton adds a secondary styled button
func (b *ComponentBuilder) SecondaryButton(label, action, target string, args ...string) *ComponentBuilder {
	return b.Button(label, discordgo.SecondaryButton, action, target, args...)
}

// SuccessButton adds a success styled button
func (b *ComponentBuilder) SuccessButton(label, action, target string, args ...string) *ComponentBuilder {
	return b.Button(label, discordgo.SuccessButton, action, target, args...)
}

// NewRow starts a new action row
func (b *ComponentBuilder) NewRow() *ComponentBuilder {
	if len(b.currentRow) > 0 {
		b.rows = append(b.rows, discordgo.ActionsRow{
			Components: b.currentRow,
		})
		b.currentRow = make([]discordgo.MessageComponent, 0, MaxButtonsPerRow)
	}
	return b
}

// Build returns the built components, or the custom id errors collected
// while building. Rows beyond Discord's limit are an error too.
func (b *ComponentBuilder) Build() ([]discordgo.MessageComponent, error) {
	b.NewRow()

	if len(b.rows) > MaxRows {
		b.errs = append(b.errs, errors.New("too many component rows"))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	return b.rows, nil
}

func (b *ComponentBuilder) addComponent(component discordgo.MessageComponent) {
	if len(b.currentRow) >= MaxButtonsPerRow {
		b.NewRow()
	}

	b.currentRow = append(b.currentRow, component)
}
