package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

// sheetOutput is the JSON shape of a shown sheet
type sheetOutput struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Level  int      `json:"level"`
	Nature string   `json:"nature"`
	Types  []string `json:"types"`
	Moves  []string `json:"moves"`
}

func newShowCmd(env *Env, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <actor-id>",
		Short: "Render an actor's Pokémon sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			a, rendered, err := s.render(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view, ok := rendered.Data["poke"].(pokemon.View)
			if !ok {
				return fmt.Errorf("actor %s does not use the Pokémon sheet", a.ID)
			}

			out := sheetOutput{
				ID:     a.ID,
				Name:   view.Name,
				Level:  view.Level,
				Nature: view.Nature,
				Types:  append([]string{}, view.Types...),
				Moves:  make([]string, 0, len(view.Moves)),
			}
			for _, m := range view.Moves {
				out.Moves = append(out.Moves, m.Name)
			}

			if flags.format == formatJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printSheet(cmd, out)
			return nil
		},
	}
}

func printSheet(cmd *cobra.Command, out sheetOutput) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (Level %d)\n", out.Name, out.Level)
	fmt.Fprintf(w, "Nature: %s\n", out.Nature)
	fmt.Fprintf(w, "Types: %s\n", strings.Join(out.Types, ", "))
	fmt.Fprintln(w, "Moves:")
	for i, m := range out.Moves {
		fmt.Fprintf(w, "  %d. %s\n", i, m)
	}
}
