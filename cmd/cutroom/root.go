package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var serviceFlag string

	ctx := newCommandContext(&configFlag, &serviceFlag)

	rootCmd := &cobra.Command{
		Use:           "cutroom",
		Short:         "Cutroom video composition CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&serviceFlag, "service", "", "Render service base URL (overrides config)")

	rootCmd.AddCommand(newCompCommand(ctx))
	rootCmd.AddCommand(newTrackCommand(ctx))
	rootCmd.AddCommand(newEventCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newIntentCommand(ctx))
	rootCmd.AddCommand(newServiceCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
