package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/project"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List render jobs recorded in the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *project.Store) error {
				records, err := store.ListJobs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No render jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					job := record.Job
					detail := job.OutputURI
					if job.Error != "" {
						detail = job.Error
					}
					rows = append(rows, []string{
						job.JobID,
						job.CompositionID,
						statusLabel(job.Status),
						formatProgress(job.Progress),
						formatFrames(job.CurrentFrame, job.TotalFrames),
						formatTimestamp(record.UpdatedAt),
						detail,
					})
				}
				out := renderTable(
					[]string{"Job", "Composition", "Status", "Progress", "Frames", "Updated", "Output / Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to list (0 for all)")
	return cmd
}
