package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

type seedOptions struct {
	id       string
	name     string
	owner    string
	kind     string
	strength int
	level    int
	profile  profileFlags
}

func newSeedCmd(env *Env, flags *rootFlags) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an actor, optionally with a Pokémon profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, env, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "Actor id (default: a new UUID)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Actor name (required)")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owning Discord user id")
	cmd.Flags().StringVar(&opts.kind, "kind", string(actor.KindCharacter), "Actor kind: character or npc")
	cmd.Flags().IntVar(&opts.strength, "str", 0, "Strength score")
	cmd.Flags().IntVar(&opts.level, "level", 0, "Level")
	opts.profile.register(cmd)

	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runSeed(cmd *cobra.Command, env *Env, flags *rootFlags, opts *seedOptions) error {
	kind := actor.Kind(strings.ToLower(opts.kind))
	if kind != actor.KindCharacter && kind != actor.KindNPC {
		return fmt.Errorf("unknown kind %q", opts.kind)
	}

	s, err := env.open(cmd, flags)
	if err != nil {
		return err
	}
	defer s.Close()

	id := opts.id
	if id == "" {
		id = uuid.NewGoogleUUIDGenerator().New()
	}

	a := &actor.Actor{
		ID:      id,
		OwnerID: opts.owner,
		Name:    opts.name,
		Kind:    kind,
		System:  &actor.System{},
	}
	if opts.strength > 0 {
		a.System.Abilities = map[string]*actor.AbilityScore{actor.AbilityStrength: {Value: opts.strength}}
	}
	if opts.level > 0 {
		a.System.Details = &actor.Details{Level: opts.level}
	}

	if err := s.backend.Repository.Create(cmd.Context(), a); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", kind, a.Name, a.ID)

	if opts.profile.empty() {
		return nil
	}
	return saveProfile(cmd, s, a.ID, opts.profile)
}
