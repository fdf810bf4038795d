package timeline

import (
	"sync"

	"github.com/google/uuid"
)

// Editor owns one editing session's document: the composition, tracks,
// elements, transient view state, and the undo/redo history. All operations
// are safe for use from multiple goroutines, though the intended model is a
// single writer.
type Editor struct {
	mu sync.Mutex

	comp     *Composition
	tracks   []Track
	elements map[string]Element

	selectedElement string
	currentFrame    int

	history *History
	newID   func() string
}

// Option adjusts Editor construction.
type Option func(*Editor)

// WithHistoryLimit overrides the number of undoable edits retained.
func WithHistoryLimit(limit int) Option {
	return func(e *Editor) {
		if limit > 0 {
			e.history = NewHistory(e.snapshot(), limit)
		}
	}
}

// WithIDGenerator overrides entity id generation. Intended for tests that
// need deterministic ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEditor constructs an empty editing session. The history baseline is the
// empty document, so undoing every commit restores a blank session.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		elements: make(map[string]Element),
		newID:    uuid.NewString,
	}
	e.history = NewHistory(e.snapshot(), DefaultHistoryLimit)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// snapshot captures the current document state. Callers must hold e.mu
// (or be inside construction before the editor is shared).
func (e *Editor) snapshot() Snapshot {
	return Snapshot{
		Composition: e.comp,
		Tracks:      e.tracks,
		Elements:    e.elements,
	}
}

// commit records the current document state into history. Callers must hold e.mu.
func (e *Editor) commit() {
	e.history.Commit(e.snapshot())
}

// restore replaces the live document with a snapshot. Callers must hold e.mu.
// Selection is cleared when the restored document no longer contains the
// selected element; the playback frame is re-clamped to the restored duration.
func (e *Editor) restore(snap Snapshot) {
	e.comp = snap.Composition
	e.tracks = snap.Tracks
	e.elements = snap.Elements
	if e.elements == nil {
		e.elements = make(map[string]Element)
	}
	if e.selectedElement != "" {
		if _, ok := e.elements[e.selectedElement]; !ok {
			e.selectedElement = ""
		}
	}
	e.currentFrame = e.clampFrame(e.currentFrame)
}

// Composition returns a deep copy of the current composition, or nil when no
// composition exists.
func (e *Editor) Composition() *Composition {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.comp == nil {
		return nil
	}
	cp := e.comp.Clone()
	return &cp
}

// Tracks returns a deep copy of the track list in timeline order.
func (e *Editor) Tracks() []Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Track, len(e.tracks))
	for i, tr := range e.tracks {
		out[i] = tr.Clone()
	}
	return out
}

// Track returns a deep copy of one track by id.
func (e *Editor) Track(id string) (Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tr := range e.tracks {
		if tr.ID == id {
			return tr.Clone(), true
		}
	}
	return Track{}, false
}

// Event returns a deep copy of one event, searching all tracks.
func (e *Editor) Event(id string) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tr := range e.tracks {
		for _, ev := range tr.Events {
			if ev.ID == id {
				return ev.Clone(), true
			}
		}
	}
	return Event{}, false
}

// Elements returns a deep copy of the element map.
func (e *Editor) Elements() map[string]Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Element, len(e.elements))
	for id, el := range e.elements {
		out[id] = el.Clone()
	}
	return out
}

// Element returns a deep copy of one element by id.
func (e *Editor) Element(id string) (Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, ok := e.elements[id]
	if !ok {
		return Element{}, false
	}
	return el.Clone(), true
}

// Document returns a deep copy of the full persisted document state.
func (e *Editor) Document() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot().Clone()
}

// Load replaces the document with the supplied snapshot and reseeds history
// so the loaded state becomes the new undo baseline. Selection and playback
// frame are reset.
func (e *Editor) Load(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	loaded := snap.Clone()
	e.comp = loaded.Composition
	e.tracks = loaded.Tracks
	e.elements = loaded.Elements
	if e.elements == nil {
		e.elements = make(map[string]Element)
	}
	e.selectedElement = ""
	e.currentFrame = 0
	e.history = NewHistory(e.snapshot(), e.history.Limit())
}

// SelectElement marks an element as selected without touching history.
// Passing an empty or unknown id clears the selection, so the selection
// always references an existing element or nothing.
func (e *Editor) SelectElement(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == "" {
		e.selectedElement = ""
		return
	}
	if _, ok := e.elements[id]; !ok {
		e.selectedElement = ""
		return
	}
	e.selectedElement = id
}

// SelectedElement returns a deep copy of the selected element, if any.
func (e *Editor) SelectedElement() (Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedElement == "" {
		return Element{}, false
	}
	el, ok := e.elements[e.selectedElement]
	if !ok {
		return Element{}, false
	}
	return el.Clone(), true
}

// SetCurrentFrame moves the transient playhead without touching history.
// The frame is clamped into the composition's range.
func (e *Editor) SetCurrentFrame(frame int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentFrame = e.clampFrame(frame)
}

// CurrentFrame returns the transient playhead position.
func (e *Editor) CurrentFrame() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentFrame
}

func (e *Editor) clampFrame(frame int) int {
	if frame < 0 {
		return 0
	}
	if e.comp == nil {
		return 0
	}
	if max := e.comp.DurationInFrames - 1; frame > max {
		return max
	}
	return frame
}

// Undo restores the previous committed state. It reports false when no undo
// step is available.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// Redo restores the next committed state. It reports false when no redo step
// is available.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// CanUndo reports whether an undo step is available.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// HistoryLen returns the number of retained undoable entries.
func (e *Editor) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Len()
}
