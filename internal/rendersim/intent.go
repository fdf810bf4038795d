package rendersim

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"cutroom/internal/renderapi"
	"cutroom/internal/timeline"
)

var (
	resolutionPattern = regexp.MustCompile(`\b(\d{3,4})p\b`)
	durationPattern   = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:s|secs?|seconds?)\b`)
	fpsPattern        = regexp.MustCompile(`\b(\d+)\s*fps\b`)
)

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#cc2222",
	"green":  "#22aa44",
	"blue":   "#2244cc",
	"yellow": "#ddbb22",
	"purple": "#7733aa",
	"orange": "#dd7722",
}

var resolutionHeights = map[int][2]int{
	480:  {854, 480},
	720:  {1280, 720},
	1080: {1920, 1080},
	1440: {2560, 1440},
	2160: {3840, 2160},
}

// parseIntent builds a composition from free text using shallow heuristics:
// resolution shorthand, a duration in seconds, a frame rate, and color
// words. The text itself lands on a text track so the result is visibly
// derived from the request. A real parser sits behind the same method in
// production; the simulator only needs plausible output.
func parseIntent(text string) (renderapi.Document, string) {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)

	width, height := 1920, 1080
	if match := resolutionPattern.FindStringSubmatch(lowered); match != nil {
		if p, err := strconv.Atoi(match[1]); err == nil {
			if dims, ok := resolutionHeights[p]; ok {
				width, height = dims[0], dims[1]
			}
		}
	}

	fps := 30.0
	if match := fpsPattern.FindStringSubmatch(lowered); match != nil {
		if v, err := strconv.Atoi(match[1]); err == nil && v > 0 && v <= 240 {
			fps = float64(v)
		}
	}

	seconds := 5.0
	if match := durationPattern.FindStringSubmatch(lowered); match != nil {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil && v > 0 {
			seconds = v
		}
	}
	durationInFrames := int(seconds * fps)
	if durationInFrames < 1 {
		durationInFrames = 1
	}

	background := ""
	for name, hex := range namedColors {
		if strings.Contains(lowered, name) {
			background = hex
			break
		}
	}

	name := trimmed
	if len(name) > 48 {
		name = name[:48]
	}
	if name == "" {
		name = "Untitled"
	}

	comp := timeline.Composition{
		ID:               uuid.NewString(),
		Name:             name,
		Width:            width,
		Height:           height,
		FPS:              fps,
		DurationInFrames: durationInFrames,
		BackgroundColor:  background,
	}
	track := timeline.Track{
		ID:      uuid.NewString(),
		Name:    "Text",
		Type:    timeline.TrackText,
		Visible: true,
	}
	event := timeline.Event{
		ID:         uuid.NewString(),
		TrackID:    track.ID,
		Type:       "text",
		StartFrame: 0,
		EndFrame:   durationInFrames,
		Properties: map[string]any{"text": trimmed},
	}
	track.Events = []timeline.Event{event}

	explanation := fmt.Sprintf(
		"Created a %dx%d composition at %g fps lasting %g seconds with one text track showing the request.",
		width, height, fps, seconds,
	)
	if background != "" {
		explanation += fmt.Sprintf(" Background set to %s.", background)
	}

	return renderapi.Document{
		Composition: comp,
		Tracks:      []timeline.Track{track},
		Elements:    map[string]timeline.Element{},
	}, explanation
}
