package sheets

import (
	"context"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// Rendered is an opened sheet: the data it was built from, its markup and
// the live form with the sheet's handlers bound
type Rendered struct {
	Options Options
	Data    Data
	Markup  string
	Form    *Form
}

// Render opens sheet for a: builds the view-model, renders the sheet's
// template, parses the markup and lets the sheet bind its listeners
func Render(ctx context.Context, sheet Sheet, renderer Renderer, a *actor.Actor) (*Rendered, error) {
	if a == nil {
		return nil, sheeterr.InvalidArgument("actor is required")
	}

	options := sheet.DefaultOptions()
	data, err := sheet.GetData(ctx, a)
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to build sheet data for %s", a.ID)
	}

	markup, err := renderer.Render(ctx, options.Template, data)
	if err != nil {
		return nil, err
	}

	form, err := ParseForm(markup)
	if err != nil {
		return nil, err
	}
	form.ActorID = a.ID
	sheet.ActivateListeners(form)

	return &Rendered{
		Options: options,
		Data:    data,
		Markup:  markup,
		Form:    form,
	}, nil
}
