package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newChatCmd(env *Env, flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "List recent chat log entries (Redis only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := env.open(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.history == nil {
				return errors.New("chat history needs a Redis store")
			}

			messages, err := s.history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if flags.format == formatJSON {
				return printJSON(cmd.OutOrStdout(), messages)
			}
			out := writerLog{out: cmd.OutOrStdout()}
			for _, msg := range messages {
				if err := out.Post(cmd.Context(), msg); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of entries")
	return cmd
}
