package timeline

import "strings"

// TrackType classifies the media carried by a track.
type TrackType string

const (
	TrackVideo  TrackType = "video"
	TrackAudio  TrackType = "audio"
	TrackText   TrackType = "text"
	TrackImage  TrackType = "image"
	TrackShape  TrackType = "shape"
	TrackEffect TrackType = "effect"
)

var allTrackTypes = []TrackType{
	TrackVideo,
	TrackAudio,
	TrackText,
	TrackImage,
	TrackShape,
	TrackEffect,
}

var trackTypeSet = func() map[TrackType]struct{} {
	set := make(map[TrackType]struct{}, len(allTrackTypes))
	for _, t := range allTrackTypes {
		set[t] = struct{}{}
	}
	return set
}()

// AllTrackTypes returns the ordered list of known track types.
func AllTrackTypes() []TrackType {
	cp := make([]TrackType, len(allTrackTypes))
	copy(cp, allTrackTypes)
	return cp
}

// ParseTrackType converts a string into a known TrackType.
func ParseTrackType(value string) (TrackType, bool) {
	normalized := TrackType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := trackTypeSet[normalized]
	return normalized, ok
}

// Composition is the root editable document.
type Composition struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	FPS              float64        `json:"fps"`
	DurationInFrames int            `json:"durationInFrames"`
	BackgroundColor  string         `json:"backgroundColor,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// DurationSeconds returns the composition length in seconds.
func (c Composition) DurationSeconds() float64 {
	if c.FPS <= 0 {
		return 0
	}
	return float64(c.DurationInFrames) / c.FPS
}

// Clone returns a deep copy of the composition.
func (c Composition) Clone() Composition {
	cp := c
	cp.Metadata = cloneMap(c.Metadata)
	return cp
}

// Track is an ordered lane of events of one media type. Events stay sorted
// ascending by StartFrame.
type Track struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Type    TrackType `json:"type"`
	Events  []Event   `json:"events"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
	Muted   bool      `json:"muted"`
}

// Clone returns a deep copy of the track and its events.
func (t Track) Clone() Track {
	cp := t
	if t.Events != nil {
		cp.Events = make([]Event, len(t.Events))
		for i, ev := range t.Events {
			cp.Events[i] = ev.Clone()
		}
	}
	return cp
}

// Event is a timed occurrence on a track. EndFrame is exclusive of the last
// displayed frame and always exceeds StartFrame by at least one.
type Event struct {
	ID         string         `json:"id"`
	TrackID    string         `json:"trackId"`
	Type       string         `json:"type"`
	StartFrame int            `json:"startFrame"`
	EndFrame   int            `json:"endFrame"`
	Properties map[string]any `json:"properties,omitempty"`
	Effects    []Effect       `json:"effects,omitempty"`
	Keyframes  []Keyframe     `json:"keyframes,omitempty"`
}

// Duration returns the event width in frames.
func (e Event) Duration() int {
	return e.EndFrame - e.StartFrame
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	cp := e
	cp.Properties = cloneMap(e.Properties)
	if e.Effects != nil {
		cp.Effects = make([]Effect, len(e.Effects))
		for i, fx := range e.Effects {
			cp.Effects[i] = fx.Clone()
		}
	}
	if e.Keyframes != nil {
		cp.Keyframes = make([]Keyframe, len(e.Keyframes))
		copy(cp.Keyframes, e.Keyframes)
		for i, kf := range e.Keyframes {
			cp.Keyframes[i].Value = cloneValue(kf.Value)
		}
	}
	return cp
}

// Effect is a named transformation applied to an event.
type Effect struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Clone returns a deep copy of the effect.
func (f Effect) Clone() Effect {
	cp := f
	cp.Properties = cloneMap(f.Properties)
	return cp
}

// Keyframe pins a property value at a frame, optionally with an easing curve.
type Keyframe struct {
	Frame    int    `json:"frame"`
	Property string `json:"property"`
	Value    any    `json:"value"`
	Easing   string `json:"easing,omitempty"`
}

// Transform positions an element on the canvas.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

// Element is an addressable renderable object. Events reference elements by
// id only; removing an element never cascades into events.
type Element struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Transform  Transform      `json:"transform"`
	Style      map[string]any `json:"style,omitempty"`
}

// Clone returns a deep copy of the element.
func (el Element) Clone() Element {
	cp := el
	cp.Properties = cloneMap(el.Properties)
	cp.Style = cloneMap(el.Style)
	return cp
}

// cloneValue deep-copies the JSON-shaped values stored in property maps.
// Maps and slices are copied recursively; scalars are returned as-is.
func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}
