package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/project"
	"cutroom/internal/renderapi"
	"cutroom/internal/timeline"
)

func newCompCommand(ctx *commandContext) *cobra.Command {
	compCmd := &cobra.Command{
		Use:   "comp",
		Short: "Manage compositions in the project",
	}

	compCmd.AddCommand(newCompNewCommand(ctx))
	compCmd.AddCommand(newCompListCommand(ctx))
	compCmd.AddCommand(newCompShowCommand(ctx))
	compCmd.AddCommand(newCompDeleteCommand(ctx))

	return compCmd
}

func newCompNewCommand(ctx *commandContext) *cobra.Command {
	var (
		width      int
		height     int
		fps        float64
		duration   int
		background string
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a composition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, store *project.Store) error {
				editor := timeline.NewEditor(timeline.WithHistoryLimit(cfg.Editor.HistoryLimit))
				comp := editor.CreateComposition(timeline.CompositionParams{
					Name:             args[0],
					Width:            width,
					Height:           height,
					FPS:              fps,
					DurationInFrames: duration,
					BackgroundColor:  background,
				})
				doc := renderapi.DocumentFromSnapshot(editor.Document())
				if err := store.SaveComposition(cmd.Context(), doc); err != nil {
					return fmt.Errorf("save composition: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created composition %s (%s)\n", comp.Name, comp.ID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&width, "width", 1920, "Canvas width in pixels")
	cmd.Flags().IntVar(&height, "height", 1080, "Canvas height in pixels")
	cmd.Flags().Float64Var(&fps, "fps", 30, "Frames per second")
	cmd.Flags().IntVar(&duration, "duration", 150, "Composition length in frames")
	cmd.Flags().StringVar(&background, "background", "", "Background color (#rrggbb)")
	return cmd
}

func newCompListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored compositions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *project.Store) error {
				records, err := store.ListCompositions(cmd.Context())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No compositions in the project")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					comp := record.Document.Composition
					rows = append(rows, []string{
						record.ID,
						record.Name,
						fmt.Sprintf("%dx%d", comp.Width, comp.Height),
						strconv.FormatFloat(comp.FPS, 'f', -1, 64),
						strconv.Itoa(comp.DurationInFrames),
						formatTimestamp(record.UpdatedAt),
					})
				}
				out := renderTable(
					[]string{"ID", "Name", "Size", "FPS", "Frames", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newCompShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <composition-id>",
		Short: "Show a composition's tracks and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *project.Store) error {
				record, err := store.GetComposition(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				comp := record.Document.Composition
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", comp.Name, comp.ID)
				fmt.Fprintf(out, "  Canvas:   %dx%d @ %s fps\n", comp.Width, comp.Height,
					strconv.FormatFloat(comp.FPS, 'f', -1, 64))
				fmt.Fprintf(out, "  Duration: %d frames (%.2fs)\n", comp.DurationInFrames, comp.DurationSeconds())
				if comp.BackgroundColor != "" {
					fmt.Fprintf(out, "  Background: %s\n", comp.BackgroundColor)
				}

				if len(record.Document.Tracks) == 0 {
					fmt.Fprintln(out, "  No tracks")
					return nil
				}
				rows := make([][]string, 0)
				for _, track := range record.Document.Tracks {
					rows = append(rows, []string{
						track.ID,
						track.Name,
						titleCaser.String(string(track.Type)),
						strconv.Itoa(len(track.Events)),
						yesNo(track.Visible),
						yesNo(track.Locked),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Track", "Name", "Type", "Events", "Visible", "Locked"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newCompDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <composition-id>",
		Short: "Delete a composition from the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(cfg *config.Config, store *project.Store) error {
				if err := store.DeleteComposition(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted composition %s\n", args[0])
				return nil
			})
		},
	}
}
