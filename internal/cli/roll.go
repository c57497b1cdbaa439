package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

func errNoControl(selector string) error {
	return fmt.Errorf("sheet has no %s control", selector)
}

func newRollCmd(env *Env, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "roll <actor-id> <move-index>",
		Short: "Roll an attack for one of the actor's moves",
		Long:  "Roll clicks the roll control of the move at the given zero-based index, as listed by show.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("move index must be a number: %w", err)
			}

			s, err := env.open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			_, rendered, err := s.render(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var control *sheets.Control
			for _, c := range rendered.Form.Find(pokemon.SelectorRoll).Controls() {
				if pokemon.MoveIndex(c) == index {
					control = c
					break
				}
			}

			if control == nil {
				s.notes.Warn(cmd.Context(), pokemon.MessageMoveMissing)
			} else if err := rendered.Form.Trigger(cmd.Context(), control, sheets.EventClick, nil); err != nil {
				return err
			}

			s.printNotes(cmd.OutOrStdout())
			return nil
		},
	}
}
