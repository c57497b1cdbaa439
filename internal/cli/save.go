package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

// profileFlags are the sheet's editable fields. Unset flags are not
// submitted, so the stored values stay.
type profileFlags struct {
	nature string
	types  string
	moves  []string
}

func (p *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.nature, "nature", "", "Nature, e.g. Jolly")
	cmd.Flags().StringVar(&p.types, "types", "", "Comma separated types, e.g. \"Electric, Steel\"")
	cmd.Flags().StringArrayVar(&p.moves, "move", nil, "Move name; repeat for each move")
}

func (p profileFlags) empty() bool {
	return p.nature == "" && p.types == "" && len(p.moves) == 0
}

// submission mirrors what the sheet's form posts
func (p profileFlags) submission() sheets.Submission {
	flat := make(map[string]any)
	if p.nature != "" {
		flat["poke.nature"] = p.nature
	}
	if p.types != "" {
		flat["poke.types"] = p.types
	}
	if len(p.moves) > 0 {
		flat["poke.moves"] = strings.Join(p.moves, "\n")
	}
	return sheets.ExpandSubmission(flat)
}

func newSaveCmd(env *Env, flags *rootFlags) *cobra.Command {
	profile := &profileFlags{}

	cmd := &cobra.Command{
		Use:   "save <actor-id>",
		Short: "Save nature, types or moves through the sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			return saveProfile(cmd, s, args[0], *profile)
		},
	}

	profile.register(cmd)
	return cmd
}

// saveProfile clicks the sheet's save control with the profile as the
// submission and prints what the sheet reported
func saveProfile(cmd *cobra.Command, s *session, actorID string, profile profileFlags) error {
	_, rendered, err := s.render(cmd.Context(), actorID)
	if err != nil {
		return err
	}

	control := rendered.Form.Find(pokemon.SelectorSave).First()
	if control == nil {
		return errNoControl(pokemon.SelectorSave)
	}

	if err := rendered.Form.Trigger(cmd.Context(), control, sheets.EventClick, profile.submission()); err != nil {
		return err
	}

	s.printNotes(cmd.OutOrStdout())
	return nil
}
