package timeline

import (
	"sort"
	"strings"
)

const (
	defaultCompositionName   = "Untitled"
	defaultCompositionWidth  = 1920
	defaultCompositionHeight = 1080
	defaultCompositionFPS    = 30
)

// CompositionParams describes a new composition. Zero-valued dimensions fall
// back to repository defaults; negative or sub-minimum values are clamped
// rather than rejected.
type CompositionParams struct {
	Name             string
	Width            int
	Height           int
	FPS              float64
	DurationInFrames int
	BackgroundColor  string
	Metadata         map[string]any
}

// CompositionPatch carries a partial composition update. Nil fields are left
// unchanged; a non-nil Metadata map replaces the stored one.
type CompositionPatch struct {
	Name             *string
	Width            *int
	Height           *int
	FPS              *float64
	DurationInFrames *int
	BackgroundColor  *string
	Metadata         map[string]any
}

// TrackSpec describes a new track. New tracks start visible; visibility is
// toggled afterwards through UpdateTrack.
type TrackSpec struct {
	Name   string
	Type   TrackType
	Locked bool
	Muted  bool
}

// TrackPatch carries a partial track update. Nil fields are left unchanged.
type TrackPatch struct {
	Name    *string
	Type    *TrackType
	Locked  *bool
	Visible *bool
	Muted   *bool
}

// EventSpec describes a new event. StartFrame is clamped to zero or above and
// EndFrame to at least one frame past StartFrame.
type EventSpec struct {
	Type       string
	StartFrame int
	EndFrame   int
	Properties map[string]any
	Effects    []Effect
	Keyframes  []Keyframe
}

// EventPatch carries a partial event update. Nil fields are left unchanged; a
// non-nil Properties map and non-nil Effects/Keyframes slices replace the
// stored ones.
type EventPatch struct {
	Type       *string
	StartFrame *int
	EndFrame   *int
	Properties map[string]any
	Effects    []Effect
	Keyframes  []Keyframe
}

// ElementSpec describes a new element.
type ElementSpec struct {
	Type       string
	Name       string
	Properties map[string]any
	Transform  Transform
	Style      map[string]any
}

// ElementPatch carries a partial element update. Nil fields are left
// unchanged; non-nil maps replace the stored ones.
type ElementPatch struct {
	Type       *string
	Name       *string
	Properties map[string]any
	Transform  *Transform
	Style      map[string]any
}

// CreateComposition starts a fresh document: a new composition with a
// generated id, no tracks, no elements, cleared selection and playhead. The
// result is committed to history, so undo restores whatever document existed
// before.
func (e *Editor) CreateComposition(params CompositionParams) Composition {
	e.mu.Lock()
	defer e.mu.Unlock()

	comp := Composition{
		ID:               e.newID(),
		Name:             strings.TrimSpace(params.Name),
		Width:            params.Width,
		Height:           params.Height,
		FPS:              params.FPS,
		DurationInFrames: params.DurationInFrames,
		BackgroundColor:  params.BackgroundColor,
		Metadata:         cloneMap(params.Metadata),
	}
	if comp.Name == "" {
		comp.Name = defaultCompositionName
	}
	if comp.Width <= 0 {
		comp.Width = defaultCompositionWidth
	}
	if comp.Height <= 0 {
		comp.Height = defaultCompositionHeight
	}
	if comp.FPS <= 0 {
		comp.FPS = defaultCompositionFPS
	}
	if comp.DurationInFrames < 1 {
		comp.DurationInFrames = 1
	}

	e.comp = &comp
	e.tracks = nil
	e.elements = make(map[string]Element)
	e.selectedElement = ""
	e.currentFrame = 0
	e.commit()
	return comp.Clone()
}

// UpdateComposition shallow-merges the patch into the current composition and
// commits. It reports false (without committing) when no composition exists.
func (e *Editor) UpdateComposition(patch CompositionPatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.comp == nil {
		return false
	}

	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			e.comp.Name = name
		}
	}
	if patch.Width != nil && *patch.Width > 0 {
		e.comp.Width = *patch.Width
	}
	if patch.Height != nil && *patch.Height > 0 {
		e.comp.Height = *patch.Height
	}
	if patch.FPS != nil && *patch.FPS > 0 {
		e.comp.FPS = *patch.FPS
	}
	if patch.DurationInFrames != nil {
		duration := *patch.DurationInFrames
		if duration < 1 {
			duration = 1
		}
		e.comp.DurationInFrames = duration
		e.currentFrame = e.clampFrame(e.currentFrame)
	}
	if patch.BackgroundColor != nil {
		e.comp.BackgroundColor = *patch.BackgroundColor
	}
	if patch.Metadata != nil {
		e.comp.Metadata = cloneMap(patch.Metadata)
	}

	e.commit()
	return true
}

// AddTrack appends a track with a generated id and an empty event list, then
// commits.
func (e *Editor) AddTrack(spec TrackSpec) Track {
	e.mu.Lock()
	defer e.mu.Unlock()

	trackType := spec.Type
	if _, ok := trackTypeSet[trackType]; !ok {
		trackType = TrackVideo
	}
	track := Track{
		ID:      e.newID(),
		Name:    strings.TrimSpace(spec.Name),
		Type:    trackType,
		Events:  []Event{},
		Locked:  spec.Locked,
		Visible: true,
		Muted:   spec.Muted,
	}
	if track.Name == "" {
		track.Name = string(trackType)
	}

	e.tracks = append(e.tracks, track)
	e.commit()
	return track.Clone()
}

// UpdateTrack merges the patch into the named track and commits. Unknown ids
// are a no-op and do not commit.
func (e *Editor) UpdateTrack(id string, patch TrackPatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.trackIndex(id)
	if idx < 0 {
		return false
	}
	track := &e.tracks[idx]
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			track.Name = name
		}
	}
	if patch.Type != nil {
		if _, ok := trackTypeSet[*patch.Type]; ok {
			track.Type = *patch.Type
		}
	}
	if patch.Locked != nil {
		track.Locked = *patch.Locked
	}
	if patch.Visible != nil {
		track.Visible = *patch.Visible
	}
	if patch.Muted != nil {
		track.Muted = *patch.Muted
	}

	e.commit()
	return true
}

// RemoveTrack deletes the named track and its events, then commits. Unknown
// ids are a no-op and do not commit.
func (e *Editor) RemoveTrack(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.trackIndex(id)
	if idx < 0 {
		return false
	}
	e.tracks = append(e.tracks[:idx], e.tracks[idx+1:]...)
	e.commit()
	return true
}

// ReorderTracks moves the track at index from to index to, shifting the rest.
// Out-of-range indices are clamped into the valid range. Moving a track onto
// its own position is a no-op and does not commit.
func (e *Editor) ReorderTracks(from, to int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := len(e.tracks)
	if count < 2 {
		return false
	}
	from = clampIndex(from, count)
	to = clampIndex(to, count)
	if from == to {
		return false
	}

	track := e.tracks[from]
	rest := append(e.tracks[:from], e.tracks[from+1:]...)
	e.tracks = append(rest[:to], append([]Track{track}, rest[to:]...)...)
	e.commit()
	return true
}

// AddEvent appends an event to the named track, re-sorts the track's events
// ascending by start frame, and commits. The returned event carries the
// clamped frame range. Unknown track ids are a no-op and return nil.
func (e *Editor) AddEvent(trackID string, spec EventSpec) *Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.trackIndex(trackID)
	if idx < 0 {
		return nil
	}

	start, end := clampEventRange(spec.StartFrame, spec.EndFrame)
	event := Event{
		ID:         e.newID(),
		TrackID:    trackID,
		Type:       spec.Type,
		StartFrame: start,
		EndFrame:   end,
		Properties: cloneMap(spec.Properties),
	}
	if spec.Effects != nil {
		event.Effects = make([]Effect, len(spec.Effects))
		for i, fx := range spec.Effects {
			event.Effects[i] = fx.Clone()
		}
	}
	if spec.Keyframes != nil {
		event.Keyframes = make([]Keyframe, len(spec.Keyframes))
		copy(event.Keyframes, spec.Keyframes)
	}

	track := &e.tracks[idx]
	track.Events = append(track.Events, event)
	sortEvents(track.Events)
	e.commit()
	out := event.Clone()
	return &out
}

// UpdateEvent merges the patch into the event wherever it lives, re-clamps
// the frame range, re-sorts the owning track, and commits. Unknown ids are a
// no-op and do not commit.
func (e *Editor) UpdateEvent(eventID string, patch EventPatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, pos := e.findEvent(eventID)
	if track == nil {
		return false
	}
	event := &track.Events[pos]
	if patch.Type != nil {
		event.Type = *patch.Type
	}
	if patch.StartFrame != nil {
		event.StartFrame = *patch.StartFrame
	}
	if patch.EndFrame != nil {
		event.EndFrame = *patch.EndFrame
	}
	event.StartFrame, event.EndFrame = clampEventRange(event.StartFrame, event.EndFrame)
	if patch.Properties != nil {
		event.Properties = cloneMap(patch.Properties)
	}
	if patch.Effects != nil {
		event.Effects = make([]Effect, len(patch.Effects))
		for i, fx := range patch.Effects {
			event.Effects[i] = fx.Clone()
		}
	}
	if patch.Keyframes != nil {
		event.Keyframes = make([]Keyframe, len(patch.Keyframes))
		copy(event.Keyframes, patch.Keyframes)
	}

	sortEvents(track.Events)
	e.commit()
	return true
}

// RemoveEvent deletes the event from whichever track holds it and commits.
// Unknown ids are a no-op and do not commit.
func (e *Editor) RemoveEvent(eventID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, pos := e.findEvent(eventID)
	if track == nil {
		return false
	}
	track.Events = append(track.Events[:pos], track.Events[pos+1:]...)
	e.commit()
	return true
}

// MoveEvent shifts the event to a new start frame, preserving its duration
// exactly. Negative targets clamp to zero. The owning track is re-sorted and
// the change committed. Unknown ids are a no-op and do not commit.
func (e *Editor) MoveEvent(eventID string, newStart int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, pos := e.findEvent(eventID)
	if track == nil {
		return false
	}
	event := &track.Events[pos]
	if newStart < 0 {
		newStart = 0
	}
	duration := event.Duration()
	event.StartFrame = newStart
	event.EndFrame = newStart + duration

	sortEvents(track.Events)
	e.commit()
	return true
}

// ResizeEvent sets a new frame range for the event. The start clamps to zero
// or above and the end to at least one frame past the start, so an event can
// never collapse below one frame. The owning track is re-sorted and the
// change committed. Unknown ids are a no-op and do not commit.
func (e *Editor) ResizeEvent(eventID string, start, end int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, pos := e.findEvent(eventID)
	if track == nil {
		return false
	}
	event := &track.Events[pos]
	event.StartFrame, event.EndFrame = clampEventRange(start, end)

	sortEvents(track.Events)
	e.commit()
	return true
}

// AddElement stores a new element under a generated id and commits.
func (e *Editor) AddElement(spec ElementSpec) Element {
	e.mu.Lock()
	defer e.mu.Unlock()

	element := Element{
		ID:         e.newID(),
		Type:       spec.Type,
		Name:       strings.TrimSpace(spec.Name),
		Properties: cloneMap(spec.Properties),
		Transform:  spec.Transform,
		Style:      cloneMap(spec.Style),
	}
	if element.Name == "" {
		element.Name = element.Type
	}
	e.elements[element.ID] = element
	e.commit()
	return element.Clone()
}

// UpdateElement merges the patch into the named element and commits. Unknown
// ids are a no-op and do not commit.
func (e *Editor) UpdateElement(id string, patch ElementPatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	element, ok := e.elements[id]
	if !ok {
		return false
	}
	if patch.Type != nil {
		element.Type = *patch.Type
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			element.Name = name
		}
	}
	if patch.Properties != nil {
		element.Properties = cloneMap(patch.Properties)
	}
	if patch.Transform != nil {
		element.Transform = *patch.Transform
	}
	if patch.Style != nil {
		element.Style = cloneMap(patch.Style)
	}
	e.elements[id] = element
	e.commit()
	return true
}

// RemoveElement deletes the named element and commits. References held
// elsewhere by id are left dangling on purpose; only the selection is
// cleared when it pointed at the removed element. Unknown ids are a no-op
// and do not commit.
func (e *Editor) RemoveElement(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.elements[id]; !ok {
		return false
	}
	delete(e.elements, id)
	if e.selectedElement == id {
		e.selectedElement = ""
	}
	e.commit()
	return true
}

func (e *Editor) trackIndex(id string) int {
	for i, tr := range e.tracks {
		if tr.ID == id {
			return i
		}
	}
	return -1
}

// findEvent locates an event across all tracks. Callers must hold e.mu. The
// returned track pointer aliases e.tracks storage.
func (e *Editor) findEvent(eventID string) (*Track, int) {
	for i := range e.tracks {
		for j := range e.tracks[i].Events {
			if e.tracks[i].Events[j].ID == eventID {
				return &e.tracks[i], j
			}
		}
	}
	return nil, -1
}

// sortEvents keeps a track's events ascending by start frame. The sort is
// stable so events sharing a start frame keep their insertion order.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartFrame < events[j].StartFrame
	})
}

// clampEventRange enforces a non-negative start and a minimum one-frame width.
func clampEventRange(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end < start+1 {
		end = start + 1
	}
	return start, end
}

func clampIndex(idx, count int) int {
	if idx < 0 {
		return 0
	}
	if idx > count-1 {
		return count - 1
	}
	return idx
}
