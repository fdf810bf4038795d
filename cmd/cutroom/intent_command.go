package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/project"
	"cutroom/internal/renderapi"
	"cutroom/internal/renderclient"
)

func newIntentCommand(ctx *commandContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "intent <text...>",
		Short: "Build a composition from a free-text description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return ctx.withClient(func(cfg *config.Config, client *renderclient.Client) error {
				snap, explanation, err := client.ParseIntent(cmd.Context(), text)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, explanation)
				if snap.Composition != nil {
					comp := snap.Composition
					fmt.Fprintf(out, "Composition %s: %dx%d @ %g fps, %d frames\n",
						comp.ID, comp.Width, comp.Height, comp.FPS, comp.DurationInFrames)
				}
				if !save {
					fmt.Fprintln(out, "Run again with --save to keep it in the project")
					return nil
				}
				return ctx.withStore(func(_ *config.Config, store *project.Store) error {
					doc := renderapi.DocumentFromSnapshot(snap)
					if err := store.SaveComposition(cmd.Context(), doc); err != nil {
						return fmt.Errorf("save composition: %w", err)
					}
					fmt.Fprintf(out, "Saved composition %s\n", doc.Composition.ID)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Store the parsed composition in the project")
	return cmd
}
