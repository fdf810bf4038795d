package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/project"
	"cutroom/internal/renderclient"
)

func newServiceCommand(ctx *commandContext) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Inspect the remote render service",
	}
	serviceCmd.AddCommand(newServiceHealthCommand(ctx))
	serviceCmd.AddCommand(newServiceCardCommand(ctx))
	return serviceCmd
}

func newServiceHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe service liveness and local directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cfg *config.Config, client *renderclient.Client) error {
				out := cmd.OutOrStdout()

				rows := make([][]string, 0, 4)
				health, err := client.Health(cmd.Context())
				if err != nil {
					rows = append(rows, []string{"Render service", "FAIL", err.Error()})
				} else {
					rows = append(rows, []string{"Render service", "OK",
						fmt.Sprintf("%s (version %s)", health.Status, health.Version)})
				}
				for _, check := range project.Preflight(cfg) {
					verdict := "FAIL"
					if check.Passed {
						verdict = "OK"
					}
					rows = append(rows, []string{check.Name, verdict, check.Detail})
				}

				fmt.Fprintln(out, renderTable(
					[]string{"Check", "Result", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newServiceCardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "card",
		Short: "Show the service discovery document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cfg *config.Config, client *renderclient.Client) error {
				card, err := client.AgentCard(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Name:         %s\n", card.Name)
				fmt.Fprintf(out, "URL:          %s\n", card.URL)
				fmt.Fprintf(out, "Version:      %s\n", card.Version)
				fmt.Fprintf(out, "Capabilities: %s\n", strings.Join(card.Capabilities, ", "))
				return nil
			})
		},
	}
}
