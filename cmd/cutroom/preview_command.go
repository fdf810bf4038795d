package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/renderclient"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		frame  int
		scale  float64
		output string
	)

	cmd := &cobra.Command{
		Use:   "preview <composition-id>",
		Short: "Fetch a still frame from the render service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cfg *config.Config, client *renderclient.Client) error {
				preview, err := client.PreviewFrame(cmd.Context(), args[0], frame, scale)
				if err != nil {
					return err
				}

				target := strings.TrimSpace(output)
				if target == "" {
					name := fmt.Sprintf("%s-frame-%d.%s", args[0], frame, preview.Format)
					target = filepath.Join(cfg.Paths.PreviewDir, name)
				}
				if err := os.WriteFile(target, preview.Data, 0o644); err != nil {
					return fmt.Errorf("write preview: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d %s preview to %s\n",
					preview.Width, preview.Height, preview.Format, target)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&frame, "frame", 0, "Frame to preview")
	cmd.Flags().Float64Var(&scale, "scale", 0, "Scale factor between 0 and 1 (0 for full size)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (defaults into the preview directory)")
	return cmd
}
