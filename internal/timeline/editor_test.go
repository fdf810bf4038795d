package timeline_test

import (
	"fmt"
	"sort"
	"testing"

	"cutroom/internal/timeline"
)

func newTestEditor(t *testing.T, opts ...timeline.Option) *timeline.Editor {
	t.Helper()
	seq := 0
	base := []timeline.Option{timeline.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	})}
	return timeline.NewEditor(append(base, opts...)...)
}

func newTestComposition(t *testing.T, e *timeline.Editor) timeline.Composition {
	t.Helper()
	return e.CreateComposition(timeline.CompositionParams{
		Name:             "Demo",
		Width:            1920,
		Height:           1080,
		FPS:              30,
		DurationInFrames: 300,
	})
}

func trackStarts(t *testing.T, e *timeline.Editor, trackID string) []int {
	t.Helper()
	track, ok := e.Track(trackID)
	if !ok {
		t.Fatalf("track %s not found", trackID)
	}
	starts := make([]int, len(track.Events))
	for i, ev := range track.Events {
		starts[i] = ev.StartFrame
	}
	return starts
}

func assertSorted(t *testing.T, e *timeline.Editor, trackID string) {
	t.Helper()
	starts := trackStarts(t, e, trackID)
	if !sort.IntsAreSorted(starts) {
		t.Fatalf("track events out of order: %v", starts)
	}
}

func TestCreateCompositionScenario(t *testing.T) {
	e := newTestEditor(t)
	comp := newTestComposition(t, e)

	if comp.ID == "" {
		t.Fatal("expected generated composition id")
	}
	if comp.Width != 1920 || comp.Height != 1080 || comp.FPS != 30 || comp.DurationInFrames != 300 {
		t.Fatalf("unexpected composition: %+v", comp)
	}
	if got := len(e.Tracks()); got != 0 {
		t.Fatalf("expected zero tracks, got %d", got)
	}

	track := e.AddTrack(timeline.TrackSpec{Name: "Text", Type: timeline.TrackText})
	if track.ID == "" {
		t.Fatal("expected generated track id")
	}
	if len(track.Events) != 0 {
		t.Fatalf("expected empty event list, got %d events", len(track.Events))
	}
	if !track.Visible {
		t.Fatal("expected new track to start visible")
	}

	first := e.AddEvent(track.ID, timeline.EventSpec{Type: "text", StartFrame: 10, EndFrame: 40, Properties: map[string]any{}})
	if first == nil {
		t.Fatal("AddEvent returned nil for known track")
	}
	second := e.AddEvent(track.ID, timeline.EventSpec{Type: "text", StartFrame: 0, EndFrame: 5, Properties: map[string]any{}})
	if second == nil {
		t.Fatal("AddEvent returned nil for known track")
	}

	stored, _ := e.Track(track.ID)
	if len(stored.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(stored.Events))
	}
	if stored.Events[0].StartFrame != 0 || stored.Events[0].EndFrame != 5 {
		t.Fatalf("first event = (%d,%d), want (0,5)", stored.Events[0].StartFrame, stored.Events[0].EndFrame)
	}
	if stored.Events[1].StartFrame != 10 || stored.Events[1].EndFrame != 40 {
		t.Fatalf("second event = (%d,%d), want (10,40)", stored.Events[1].StartFrame, stored.Events[1].EndFrame)
	}
}

func TestCreateCompositionClampsAndDefaults(t *testing.T) {
	e := newTestEditor(t)
	comp := e.CreateComposition(timeline.CompositionParams{Width: -5, Height: 0, FPS: -1, DurationInFrames: 0})

	if comp.Width != 1920 || comp.Height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", comp.Width, comp.Height)
	}
	if comp.FPS != 30 {
		t.Fatalf("unexpected fps: %v", comp.FPS)
	}
	if comp.DurationInFrames != 1 {
		t.Fatalf("unexpected duration: %d", comp.DurationInFrames)
	}
	if comp.Name != "Untitled" {
		t.Fatalf("unexpected name: %q", comp.Name)
	}
}

func TestCreateCompositionResetsDocument(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "A", Type: timeline.TrackVideo})
	e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 0, EndFrame: 10})
	el := e.AddElement(timeline.ElementSpec{Type: "text", Name: "title"})
	e.SelectElement(el.ID)
	e.SetCurrentFrame(42)

	e.CreateComposition(timeline.CompositionParams{Name: "Fresh", Width: 1280, Height: 720, FPS: 24, DurationInFrames: 100})

	if got := len(e.Tracks()); got != 0 {
		t.Fatalf("expected tracks reset, got %d", got)
	}
	if got := len(e.Elements()); got != 0 {
		t.Fatalf("expected elements reset, got %d", got)
	}
	if _, ok := e.SelectedElement(); ok {
		t.Fatal("expected selection cleared")
	}
	if e.CurrentFrame() != 0 {
		t.Fatalf("expected playhead reset, got %d", e.CurrentFrame())
	}
}

func TestEventOrderMaintainedAcrossMutations(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})

	a := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 50, EndFrame: 80})
	assertSorted(t, e, track.ID)
	b := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 5, EndFrame: 20})
	assertSorted(t, e, track.ID)
	e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 30, EndFrame: 45})
	assertSorted(t, e, track.ID)

	if !e.MoveEvent(a.ID, 0) {
		t.Fatal("MoveEvent failed")
	}
	assertSorted(t, e, track.ID)

	if !e.ResizeEvent(b.ID, 60, 90) {
		t.Fatal("ResizeEvent failed")
	}
	assertSorted(t, e, track.ID)

	if !e.UpdateEvent(b.ID, timeline.EventPatch{StartFrame: intPtr(10)}) {
		t.Fatal("UpdateEvent failed")
	}
	assertSorted(t, e, track.ID)
}

func TestAddEventTiesKeepInsertionOrder(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})

	first := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 10, EndFrame: 20})
	second := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 10, EndFrame: 30})

	stored, _ := e.Track(track.ID)
	if stored.Events[0].ID != first.ID || stored.Events[1].ID != second.ID {
		t.Fatalf("tie order changed: got [%s %s]", stored.Events[0].ID, stored.Events[1].ID)
	}
}

func TestMoveEventPreservesDuration(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})
	ev := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 40, EndFrame: 75})

	if !e.MoveEvent(ev.ID, 100) {
		t.Fatal("MoveEvent failed")
	}
	moved, _ := e.Event(ev.ID)
	if moved.StartFrame != 100 || moved.EndFrame != 135 {
		t.Fatalf("moved event = (%d,%d), want (100,135)", moved.StartFrame, moved.EndFrame)
	}

	if !e.MoveEvent(ev.ID, -20) {
		t.Fatal("MoveEvent failed")
	}
	moved, _ = e.Event(ev.ID)
	if moved.StartFrame != 0 || moved.EndFrame != 35 {
		t.Fatalf("clamped event = (%d,%d), want (0,35)", moved.StartFrame, moved.EndFrame)
	}
	if moved.Duration() != 35 {
		t.Fatalf("duration changed across move: %d", moved.Duration())
	}
}

func TestResizeEventEnforcesMinimumWidth(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})
	ev := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 10, EndFrame: 50})

	if !e.ResizeEvent(ev.ID, 30, 30) {
		t.Fatal("ResizeEvent failed")
	}
	resized, _ := e.Event(ev.ID)
	if resized.StartFrame != 30 || resized.EndFrame != 31 {
		t.Fatalf("resized event = (%d,%d), want (30,31)", resized.StartFrame, resized.EndFrame)
	}

	if !e.ResizeEvent(ev.ID, -10, -5) {
		t.Fatal("ResizeEvent failed")
	}
	resized, _ = e.Event(ev.ID)
	if resized.StartFrame != 0 || resized.EndFrame != 1 {
		t.Fatalf("resized event = (%d,%d), want (0,1)", resized.StartFrame, resized.EndFrame)
	}
}

func TestAddEventClampsSpec(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})

	ev := e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: -8, EndFrame: -3})
	if ev.StartFrame != 0 || ev.EndFrame != 1 {
		t.Fatalf("clamped spec = (%d,%d), want (0,1)", ev.StartFrame, ev.EndFrame)
	}
}

func TestUnknownIDsAreNoOpsWithoutCommit(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	baseline := e.HistoryLen()

	if e.RemoveTrack("missing") {
		t.Fatal("RemoveTrack on unknown id should report false")
	}
	if e.UpdateTrack("missing", timeline.TrackPatch{}) {
		t.Fatal("UpdateTrack on unknown id should report false")
	}
	if e.AddEvent("missing", timeline.EventSpec{Type: "video", EndFrame: 10}) != nil {
		t.Fatal("AddEvent on unknown track should return nil")
	}
	if e.UpdateEvent("missing", timeline.EventPatch{}) {
		t.Fatal("UpdateEvent on unknown id should report false")
	}
	if e.RemoveEvent("missing") {
		t.Fatal("RemoveEvent on unknown id should report false")
	}
	if e.MoveEvent("missing", 10) {
		t.Fatal("MoveEvent on unknown id should report false")
	}
	if e.ResizeEvent("missing", 0, 10) {
		t.Fatal("ResizeEvent on unknown id should report false")
	}
	if e.UpdateElement("missing", timeline.ElementPatch{}) {
		t.Fatal("UpdateElement on unknown id should report false")
	}
	if e.RemoveElement("missing") {
		t.Fatal("RemoveElement on unknown id should report false")
	}

	if e.HistoryLen() != baseline {
		t.Fatalf("no-ops committed history entries: %d -> %d", baseline, e.HistoryLen())
	}
}

func TestReorderTracksClampsIndices(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	a := e.AddTrack(timeline.TrackSpec{Name: "A", Type: timeline.TrackVideo})
	b := e.AddTrack(timeline.TrackSpec{Name: "B", Type: timeline.TrackAudio})
	c := e.AddTrack(timeline.TrackSpec{Name: "C", Type: timeline.TrackText})

	if !e.ReorderTracks(0, 99) {
		t.Fatal("ReorderTracks failed")
	}
	tracks := e.Tracks()
	got := []string{tracks[0].ID, tracks[1].ID, tracks[2].ID}
	want := []string{b.ID, c.ID, a.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order after reorder = %v, want %v", got, want)
		}
	}

	if e.ReorderTracks(-5, 0) {
		t.Fatal("expected clamped same-position reorder to be a no-op")
	}
}

func TestUpdateCompositionMergesAndClamps(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)

	ok := e.UpdateComposition(timeline.CompositionPatch{
		Name:             strPtr("Renamed"),
		DurationInFrames: intPtr(-10),
		Metadata:         map[string]any{"theme": "dark"},
	})
	if !ok {
		t.Fatal("UpdateComposition failed")
	}

	comp := e.Composition()
	if comp.Name != "Renamed" {
		t.Fatalf("name = %q, want Renamed", comp.Name)
	}
	if comp.DurationInFrames != 1 {
		t.Fatalf("duration = %d, want clamp to 1", comp.DurationInFrames)
	}
	if comp.Width != 1920 {
		t.Fatalf("width changed unexpectedly: %d", comp.Width)
	}
	if comp.Metadata["theme"] != "dark" {
		t.Fatalf("metadata = %v", comp.Metadata)
	}
}

func TestUpdateCompositionWithoutDocumentIsNoOp(t *testing.T) {
	e := newTestEditor(t)
	if e.UpdateComposition(timeline.CompositionPatch{Name: strPtr("x")}) {
		t.Fatal("expected UpdateComposition to report false with no composition")
	}
	if e.HistoryLen() != 0 {
		t.Fatalf("expected no commits, got %d", e.HistoryLen())
	}
}

func TestRemoveSelectedElementClearsSelection(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	first := e.AddElement(timeline.ElementSpec{Type: "text", Name: "title"})
	second := e.AddElement(timeline.ElementSpec{Type: "shape", Name: "box"})

	e.SelectElement(first.ID)
	if !e.RemoveElement(second.ID) {
		t.Fatal("RemoveElement failed")
	}
	if sel, ok := e.SelectedElement(); !ok || sel.ID != first.ID {
		t.Fatal("selection should survive removal of a different element")
	}

	if !e.RemoveElement(first.ID) {
		t.Fatal("RemoveElement failed")
	}
	if _, ok := e.SelectedElement(); ok {
		t.Fatal("selection should clear when the selected element is removed")
	}
}

func TestSelectionAndPlayheadExcludedFromHistory(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	el := e.AddElement(timeline.ElementSpec{Type: "text", Name: "title"})
	committed := e.HistoryLen()

	e.SelectElement(el.ID)
	e.SetCurrentFrame(120)
	e.SelectElement("")
	e.SetCurrentFrame(0)

	if e.HistoryLen() != committed {
		t.Fatalf("view-state changes committed history entries: %d -> %d", committed, e.HistoryLen())
	}
}

func TestSetCurrentFrameClamps(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)

	e.SetCurrentFrame(-5)
	if e.CurrentFrame() != 0 {
		t.Fatalf("negative frame = %d, want 0", e.CurrentFrame())
	}
	e.SetCurrentFrame(10_000)
	if e.CurrentFrame() != 299 {
		t.Fatalf("overshoot frame = %d, want 299", e.CurrentFrame())
	}
}

func TestUndoRedoRestoresExactState(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})
	ev := e.AddEvent(track.ID, timeline.EventSpec{
		Type: "video", StartFrame: 10, EndFrame: 50,
		Properties: map[string]any{"src": "clip.mp4"},
	})

	if !e.MoveEvent(ev.ID, 200) {
		t.Fatal("MoveEvent failed")
	}
	if !e.Undo() {
		t.Fatal("Undo failed")
	}

	restored, ok := e.Event(ev.ID)
	if !ok {
		t.Fatal("event missing after undo")
	}
	if restored.StartFrame != 10 || restored.EndFrame != 50 {
		t.Fatalf("restored event = (%d,%d), want (10,50)", restored.StartFrame, restored.EndFrame)
	}
	if restored.Properties["src"] != "clip.mp4" {
		t.Fatalf("restored properties = %v", restored.Properties)
	}

	if !e.Redo() {
		t.Fatal("Redo failed")
	}
	redone, _ := e.Event(ev.ID)
	if redone.StartFrame != 200 || redone.EndFrame != 240 {
		t.Fatalf("redone event = (%d,%d), want (200,240)", redone.StartFrame, redone.EndFrame)
	}
}

func TestUndoAllCommitsRestoresEmptySession(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	track := e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})
	e.AddEvent(track.ID, timeline.EventSpec{Type: "video", StartFrame: 0, EndFrame: 10})

	for i := 0; i < 3; i++ {
		if !e.Undo() {
			t.Fatalf("undo %d failed", i+1)
		}
	}
	if e.Undo() {
		t.Fatal("expected undo exhausted")
	}
	if e.Composition() != nil {
		t.Fatal("expected empty session after undoing every commit")
	}
	if len(e.Tracks()) != 0 {
		t.Fatal("expected no tracks after undoing every commit")
	}
}

func TestCommitAfterUndoDisablesRedo(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	e.AddTrack(timeline.TrackSpec{Name: "A", Type: timeline.TrackVideo})

	if !e.Undo() {
		t.Fatal("Undo failed")
	}
	e.AddTrack(timeline.TrackSpec{Name: "B", Type: timeline.TrackAudio})

	if e.CanRedo() {
		t.Fatal("expected redo discarded after commit")
	}
	if e.Redo() {
		t.Fatal("expected Redo to report false")
	}
	tracks := e.Tracks()
	if len(tracks) != 1 || tracks[0].Name != "B" {
		t.Fatalf("unexpected tracks after branch: %+v", tracks)
	}
}

func TestHistoryCapAppliesThroughEditor(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	for i := 0; i < 70; i++ {
		e.SetCurrentFrame(0)
		e.AddElement(timeline.ElementSpec{Type: "shape", Name: fmt.Sprintf("el-%d", i)})
	}
	if e.HistoryLen() != timeline.DefaultHistoryLimit {
		t.Fatalf("history length = %d, want %d", e.HistoryLen(), timeline.DefaultHistoryLimit)
	}
}

func TestLoadReseedsHistory(t *testing.T) {
	e := newTestEditor(t)
	newTestComposition(t, e)
	e.AddTrack(timeline.TrackSpec{Name: "V", Type: timeline.TrackVideo})
	doc := e.Document()

	fresh := newTestEditor(t)
	fresh.Load(doc)

	if fresh.CanUndo() {
		t.Fatal("expected loaded session to have no undo history")
	}
	if got := len(fresh.Tracks()); got != 1 {
		t.Fatalf("expected loaded track, got %d", got)
	}
	if fresh.Undo() {
		t.Fatal("expected Undo to report false on fresh load")
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
