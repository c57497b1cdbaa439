package sheets_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
)

func TestMergeOptions(t *testing.T) {
	base := sheets.NewActorSheet().DefaultOptions()
	merged := sheets.MergeOptions(base, sheets.Options{
		Classes: []string{"pf1", "sheet"},
		Width:   980,
		Tabs:    []sheets.Tab{{NavSelector: ".sheet-tabs", ContentSelector: ".sheet-body", Initial: "summary"}},
	})

	assert.Equal(t, []string{"pf1", "sheet"}, merged.Classes)
	assert.Equal(t, 980, merged.Width)
	assert.Equal(t, 680, merged.Height, "zero override keeps base")
	assert.Equal(t, "templates/actor-sheet.html", merged.Template)
	assert.Len(t, merged.Tabs, 1)
	assert.True(t, merged.HasClass("pf1"))
	assert.Equal(t, []string{"sheet", "actor"}, base.Classes, "base is not mutated")
}

func TestStaticHost(t *testing.T) {
	_, ok := sheets.StaticHost{}.BaseSheet()
	assert.False(t, ok)

	base, ok := sheets.StaticHost{Base: sheets.NewActorSheet()}.BaseSheet()
	assert.True(t, ok)
	assert.NotNil(t, base)
}

func TestActorSheet_GetData(t *testing.T) {
	a := &actor.Actor{
		ID:   "actor-1",
		Name: "Pikachu",
		Kind: actor.KindCharacter,
		System: &actor.System{
			Abilities: map[string]*actor.AbilityScore{actor.AbilityStrength: {Value: 14}},
			Level:     5,
		},
	}

	data, err := sheets.NewActorSheet().GetData(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "Pikachu", data["name"])
	assert.Equal(t, 5, data["level"])
	assert.Equal(t, map[string]int{"str": 14}, data["abilities"])
	assert.Equal(t, "sheet actor", data["cssClass"])
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	registry := sheets.NewRegistry()
	factory := func() sheets.Sheet { return sheets.NewActorSheet() }

	require.NoError(t, registry.RegisterSheet("pf1", factory, sheets.RegistrationConfig{
		Types: []actor.Kind{actor.KindCharacter, actor.KindNPC}, Label: "Default", MakeDefault: true,
	}))
	require.NoError(t, registry.RegisterSheet("pf1", factory, sheets.RegistrationConfig{
		Types: []actor.Kind{actor.KindCharacter}, Label: "Pokémon (PF1)",
	}))

	assert.Len(t, registry.SheetsFor("pf1", actor.KindCharacter), 2)
	assert.Len(t, registry.SheetsFor("pf1", actor.KindNPC), 1)
	assert.Empty(t, registry.SheetsFor("sf1", actor.KindCharacter))
	assert.Equal(t, []string{"pf1"}, registry.Namespaces())

	reg, err := registry.Resolve("pf1", actor.KindCharacter, "")
	require.NoError(t, err)
	assert.Equal(t, "Default", reg.Label)

	reg, err = registry.Resolve("pf1", actor.KindCharacter, "Pokémon (PF1)")
	require.NoError(t, err)
	assert.Equal(t, "Pokémon (PF1)", reg.Label)

	reg, err = registry.Resolve("pf1", actor.KindNPC, "Pokémon (PF1)")
	require.NoError(t, err)
	assert.Equal(t, "Default", reg.Label, "preferred sheet does not apply to npc")

	_, err = registry.Resolve("sf1", actor.KindCharacter, "")
	assert.True(t, sheeterr.IsNotFound(err))
}

func TestRegistry_ResolveFallsBackToFirst(t *testing.T) {
	registry := sheets.NewRegistry()
	factory := func() sheets.Sheet { return sheets.NewActorSheet() }

	require.NoError(t, registry.RegisterSheet("pf1", factory, sheets.RegistrationConfig{Types: []actor.Kind{actor.KindNPC}, Label: "A"}))
	require.NoError(t, registry.RegisterSheet("pf1", factory, sheets.RegistrationConfig{Types: []actor.Kind{actor.KindNPC}, Label: "B"}))

	reg, err := registry.Resolve("pf1", actor.KindNPC, "missing")
	require.NoError(t, err)
	assert.Equal(t, "A", reg.Label)
}

func TestRegistry_Validation(t *testing.T) {
	registry := sheets.NewRegistry()
	factory := func() sheets.Sheet { return sheets.NewActorSheet() }
	cfg := sheets.RegistrationConfig{Types: []actor.Kind{actor.KindCharacter}, Label: "Sheet"}

	assert.True(t, sheeterr.IsInvalidArgument(registry.RegisterSheet("", factory, cfg)))
	assert.True(t, sheeterr.IsInvalidArgument(registry.RegisterSheet("pf1", nil, cfg)))
	assert.True(t, sheeterr.IsInvalidArgument(registry.RegisterSheet("pf1", factory, sheets.RegistrationConfig{Label: "x"})))
	assert.True(t, sheeterr.IsInvalidArgument(registry.RegisterSheet("pf1", factory, sheets.RegistrationConfig{Types: cfg.Types})))

	require.NoError(t, registry.RegisterSheet("pf1", factory, cfg))
	assert.True(t, sheeterr.IsAlreadyExists(registry.RegisterSheet("pf1", factory, cfg)))
}

const moveMarkup = `<form class="pf1 sheet">
  <input name="poke.nature" value="Jolly">
  <textarea name="poke.moves">Thunderbolt</textarea>
  <select name="poke.size"><option value="s">S</option><option value="m" selected>M</option></select>
  <ol class="moves">
    <li class="move" data-index="0"><span>Thunderbolt</span> <button class="move-roll">Roll</button></li>
    <li class="move" data-index="1"><span>Quick Attack</span> <button class="move-roll">Roll</button></li>
  </ol>
  <button class="save-poke">Save</button>
</form>`

func TestParseForm(t *testing.T) {
	form, err := sheets.ParseForm(moveMarkup)
	require.NoError(t, err)

	rolls := form.Find(".move-roll")
	require.Equal(t, 2, rolls.Len())

	second := rolls.Controls()[1]
	assert.Equal(t, "button", second.Tag)
	assert.Equal(t, "Roll", second.Label)
	move := second.Closest(".move")
	require.NotNil(t, move)
	assert.Equal(t, "Quick Attack Roll", move.Label)
	index, ok := second.DataValue("index")
	assert.True(t, ok)
	assert.Equal(t, "1", index)

	assert.Equal(t, 1, form.Find(".save-poke").Len())
	assert.Equal(t, 0, form.Find("button").Len(), "only class selectors match")

	assert.Equal(t, map[string]string{
		"poke.nature": "Jolly",
		"poke.moves":  "Thunderbolt",
		"poke.size":   "m",
	}, form.Values())
}

func TestForm_OnAndTrigger(t *testing.T) {
	form, err := sheets.ParseForm(moveMarkup)
	require.NoError(t, err)

	var seen []string
	form.Find(".move-roll").On(sheets.EventClick, func(_ context.Context, ev *sheets.Event) error {
		ev.PreventDefault()
		index, _ := ev.Control.DataValue("index")
		seen = append(seen, index)
		return nil
	})

	assert.Len(t, form.Bound(sheets.EventClick), 2)

	ctx := context.Background()
	for _, c := range form.Bound(sheets.EventClick) {
		require.NoError(t, form.Trigger(ctx, c, sheets.EventClick, nil))
	}
	assert.Equal(t, []string{"0", "1"}, seen)

	save := form.Find(".save-poke").First()
	require.NoError(t, form.Trigger(ctx, save, sheets.EventClick, nil), "unbound control is a no-op")
	assert.Error(t, form.Trigger(ctx, nil, sheets.EventClick, nil))

	boom := errors.New("boom")
	form.Find(".save-poke").On(sheets.EventClick, func(context.Context, *sheets.Event) error { return boom })
	assert.ErrorIs(t, form.Trigger(ctx, save, sheets.EventClick, nil), boom)
}

func TestExpandSubmission(t *testing.T) {
	sub := sheets.ExpandSubmission(map[string]any{
		"poke.nature": "Bold",
		"poke.types":  []string{"Water"},
		"name":        "Squirtle",
	})

	poke, ok := sub.Section("poke")
	require.True(t, ok)
	assert.Equal(t, "Bold", poke["nature"])
	assert.Equal(t, []string{"Water"}, poke["types"])
	assert.Equal(t, "Squirtle", sub["name"])

	_, ok = sub.Section("name")
	assert.False(t, ok)
	_, ok = sheets.Submission(nil).Section("poke")
	assert.False(t, ok)

	plain := sheets.Submission{"poke": map[string]any{"nature": "Calm"}}
	poke, ok = plain.Section("poke")
	require.True(t, ok)
	assert.Equal(t, "Calm", poke["nature"])
}

func TestHTMLRenderer(t *testing.T) {
	overrides := fstest.MapFS{
		"modules/test/sheet.html": {Data: []byte(`<div class="name">{{.name}}</div>{{.missing}}`)},
		"broken.html":             {Data: []byte(`{{.name`)},
	}
	renderer := sheets.NewHTMLRenderer(overrides)
	ctx := context.Background()

	out, err := renderer.Render(ctx, "modules/test/sheet.html", sheets.Data{"name": "<Eevee>"})
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;Eevee&gt;")

	_, err = renderer.Render(ctx, "nope.html", nil)
	assert.True(t, sheeterr.IsNotFound(err))

	_, err = renderer.Render(ctx, "broken.html", nil)
	assert.Error(t, err)
}

func TestRender_ActorSheet(t *testing.T) {
	a := &actor.Actor{
		ID:     "actor-1",
		Name:   "Onix",
		Kind:   actor.KindNPC,
		System: &actor.System{Abilities: map[string]*actor.AbilityScore{actor.AbilityStrength: {Value: 18}}},
	}

	rendered, err := sheets.Render(context.Background(), sheets.NewActorSheet(), sheets.NewHTMLRenderer(), a)
	require.NoError(t, err)

	assert.Contains(t, rendered.Markup, "Onix")
	assert.Equal(t, "Onix", rendered.Form.Find(".charname").First().Label)
	ability := rendered.Form.Find(".ability").First()
	require.NotNil(t, ability)
	assert.Equal(t, "str", ability.Data["ability"])
	assert.Empty(t, rendered.Form.Bound(sheets.EventClick))

	_, err = sheets.Render(context.Background(), sheets.NewActorSheet(), sheets.NewHTMLRenderer(), nil)
	assert.True(t, sheeterr.IsInvalidArgument(err))
}
