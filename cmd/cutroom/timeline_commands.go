package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/project"
	"cutroom/internal/renderapi"
	"cutroom/internal/timeline"
)

func newTrackCommand(ctx *commandContext) *cobra.Command {
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Manage tracks on a composition",
	}
	trackCmd.AddCommand(newTrackAddCommand(ctx))
	return trackCmd
}

func newTrackAddCommand(ctx *commandContext) *cobra.Command {
	var (
		trackType string
		locked    bool
		muted     bool
	)

	cmd := &cobra.Command{
		Use:   "add <composition-id> <name>",
		Short: "Add a track to a composition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := timeline.ParseTrackType(trackType)
			if !ok {
				return fmt.Errorf("unknown track type %q (known: %s)", trackType, knownTrackTypes())
			}
			return ctx.withSession(func(cfg *config.Config, store *project.Store) error {
				editor, err := loadEditor(cmd, store, cfg, args[0])
				if err != nil {
					return err
				}
				track := editor.AddTrack(timeline.TrackSpec{
					Name:   args[1],
					Type:   parsed,
					Locked: locked,
					Muted:  muted,
				})
				doc := renderapi.DocumentFromSnapshot(editor.Document())
				if err := store.SaveComposition(cmd.Context(), doc); err != nil {
					return fmt.Errorf("save composition: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s track %s (%s)\n", track.Type, track.Name, track.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&trackType, "type", "t", "video", "Track type")
	cmd.Flags().BoolVar(&locked, "locked", false, "Create the track locked")
	cmd.Flags().BoolVar(&muted, "muted", false, "Create the track muted")
	return cmd
}

func newEventCommand(ctx *commandContext) *cobra.Command {
	eventCmd := &cobra.Command{
		Use:   "event",
		Short: "Manage events on a track",
	}
	eventCmd.AddCommand(newEventAddCommand(ctx))
	return eventCmd
}

func newEventAddCommand(ctx *commandContext) *cobra.Command {
	var (
		eventType  string
		startFrame int
		endFrame   int
		properties string
	)

	cmd := &cobra.Command{
		Use:   "add <composition-id> <track-id>",
		Short: "Add an event to a track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var props map[string]any
			if strings.TrimSpace(properties) != "" {
				if err := json.Unmarshal([]byte(properties), &props); err != nil {
					return fmt.Errorf("parse --properties: %w", err)
				}
			}
			return ctx.withSession(func(cfg *config.Config, store *project.Store) error {
				editor, err := loadEditor(cmd, store, cfg, args[0])
				if err != nil {
					return err
				}
				event := editor.AddEvent(args[1], timeline.EventSpec{
					Type:       eventType,
					StartFrame: startFrame,
					EndFrame:   endFrame,
					Properties: props,
				})
				if event == nil {
					return fmt.Errorf("track %s not found on composition %s", args[1], args[0])
				}
				doc := renderapi.DocumentFromSnapshot(editor.Document())
				if err := store.SaveComposition(cmd.Context(), doc); err != nil {
					return fmt.Errorf("save composition: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added event %s on track %s (frames %d-%d)\n",
					event.ID, args[1], event.StartFrame, event.EndFrame)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&eventType, "type", "t", "clip", "Event type")
	cmd.Flags().IntVar(&startFrame, "start", 0, "First frame")
	cmd.Flags().IntVar(&endFrame, "end", 30, "Frame after the last displayed frame")
	cmd.Flags().StringVar(&properties, "properties", "", "Event properties as JSON")
	return cmd
}

func knownTrackTypes() string {
	types := timeline.AllTrackTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
