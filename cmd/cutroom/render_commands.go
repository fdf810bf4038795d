package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/project"
	"cutroom/internal/render"
	"cutroom/internal/renderclient"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		format  string
		codec   string
		quality string
		crf     int
		bitrate string
		frames  string
	)

	renderCmd := &cobra.Command{
		Use:   "render <composition-id>",
		Short: "Render a composition on the remote service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildRenderOptions(format, codec, quality, crf, bitrate, frames)
			if err != nil {
				return err
			}
			return ctx.withClient(func(cfg *config.Config, client *renderclient.Client) error {
				return ctx.withStore(func(_ *config.Config, store *project.Store) error {
					return runRender(cmd, cfg, client, store, args[0], opts)
				})
			})
		},
	}

	renderCmd.Flags().StringVar(&format, "format", "", "Output container (mp4, webm, gif, mov, png-sequence)")
	renderCmd.Flags().StringVar(&codec, "codec", "", "Video codec (h264, h265, vp8, vp9, prores)")
	renderCmd.Flags().StringVar(&quality, "quality", "", "Quality preset (low, medium, high, lossless)")
	renderCmd.Flags().IntVar(&crf, "crf", 0, "Constant rate factor override")
	renderCmd.Flags().StringVar(&bitrate, "bitrate", "", "Bitrate override (e.g. 8M)")
	renderCmd.Flags().StringVar(&frames, "frames", "", "Frame range start-end (e.g. 0-120)")

	renderCmd.AddCommand(newRenderCancelCommand(ctx))
	return renderCmd
}

func buildRenderOptions(format, codec, quality string, crf int, bitrate, frames string) (render.Options, error) {
	opts := render.Options{
		Format:  render.Format(format),
		Codec:   render.Codec(codec),
		Quality: render.Quality(quality),
		CRF:     crf,
		Bitrate: bitrate,
	}
	if strings.TrimSpace(frames) != "" {
		parts := strings.SplitN(frames, "-", 2)
		if len(parts) != 2 {
			return render.Options{}, fmt.Errorf("invalid --frames %q, expected start-end", frames)
		}
		start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return render.Options{}, fmt.Errorf("invalid --frames start: %w", err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return render.Options{}, fmt.Errorf("invalid --frames end: %w", err)
		}
		opts.FrameRange = &render.FrameRange{Start: start, End: end}
	}
	return opts, nil
}

// configuredOptions fills unset flags from the config defaults.
func configuredOptions(cfg *config.Config, opts render.Options) render.Options {
	if opts.Format == "" {
		opts.Format = render.Format(cfg.Render.Format)
	}
	if opts.Codec == "" {
		opts.Codec = render.Codec(cfg.Render.Codec)
	}
	if opts.Quality == "" {
		opts.Quality = render.Quality(cfg.Render.Quality)
	}
	return opts
}

func runRender(cmd *cobra.Command, cfg *config.Config, client *renderclient.Client, store *project.Store, compositionID string, opts render.Options) error {
	record, err := store.GetComposition(cmd.Context(), compositionID)
	if err != nil {
		return fmt.Errorf("load composition %s: %w", compositionID, err)
	}

	out := cmd.OutOrStdout()
	interactive := isInteractive(out)

	// Ctrl-C cancels the remote job instead of abandoning it.
	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	orc := render.NewOrchestrator(client, logging.NewNop(),
		render.WithPollInterval(cfg.PollInterval()),
		render.WithProgressFunc(func(job render.Job) {
			_ = store.SaveJob(cmd.Context(), job)
			line := fmt.Sprintf("%-10s %8s  frames %s  eta %s",
				statusLabel(job.Status), formatProgress(job.Progress),
				formatFrames(job.CurrentFrame, job.TotalFrames), formatETA(job.ETA))
			if interactive {
				fmt.Fprintf(out, "\r\033[K%s", line)
			} else {
				fmt.Fprintln(out, line)
			}
		}),
	)

	result, err := orc.Render(runCtx, record.Document.Snapshot(), configuredOptions(cfg, opts))
	if interactive {
		fmt.Fprintln(out)
	}
	if err != nil {
		return err
	}

	// The progress callback saved the terminal snapshot; patch in the
	// output location, which only arrives with the final result.
	if result.JobID != "" && result.OutputURI != "" {
		if stored, getErr := store.GetJob(cmd.Context(), result.JobID); getErr == nil {
			job := stored.Job
			job.OutputURI = result.OutputURI
			_ = store.SaveJob(cmd.Context(), job)
		}
	}

	if !result.Success {
		return fmt.Errorf("render failed: %s", result.Error)
	}
	fmt.Fprintf(out, "Render complete in %.1fs of footage: %s\n", result.Duration, result.OutputURI)
	return nil
}

func newRenderCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a running render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cfg *config.Config, client *renderclient.Client) error {
				cancelled, err := client.CancelRender(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !cancelled {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %s was already finished\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled job %s\n", args[0])
				return nil
			})
		},
	}
}
