package timeline

// DefaultHistoryLimit is the number of undoable edits retained before the
// oldest entry is evicted.
const DefaultHistoryLimit = 50

// Snapshot is an immutable copy of document state used for undo/redo. It
// covers everything a commit persists: the composition, the tracks with
// their event lists, and the element map. Selection and playback frame are
// deliberately absent.
type Snapshot struct {
	Composition *Composition
	Tracks      []Track
	Elements    map[string]Element
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	cp := Snapshot{}
	if s.Composition != nil {
		c := s.Composition.Clone()
		cp.Composition = &c
	}
	if s.Tracks != nil {
		cp.Tracks = make([]Track, len(s.Tracks))
		for i, tr := range s.Tracks {
			cp.Tracks[i] = tr.Clone()
		}
	}
	if s.Elements != nil {
		cp.Elements = make(map[string]Element, len(s.Elements))
		for id, el := range s.Elements {
			cp.Elements[id] = el.Clone()
		}
	}
	return cp
}

// History is a bounded linear undo/redo stack of document snapshots.
//
// The committed entries form a window of at most limit snapshots. Below the
// window sits a baseline: the state reached by undoing past the oldest
// retained entry. When the window overflows, the oldest entry is evicted
// into the baseline, so eviction shortens how far back undo can reach but
// never skips a state.
//
// The cursor indexes the entry matching the live document; -1 means the
// document matches the baseline. History is not safe for concurrent use;
// the owning Editor serializes access.
type History struct {
	baseline Snapshot
	entries  []Snapshot
	cursor   int
	limit    int
}

// NewHistory builds a history whose baseline is the supplied initial state.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewHistory(initial Snapshot, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		baseline: initial.Clone(),
		cursor:   -1,
		limit:    limit,
	}
}

// Commit records a new snapshot. Any redo entries beyond the cursor are
// discarded first; if the window then exceeds the limit, the oldest entry is
// evicted into the baseline. The cursor always ends at the new tail.
func (h *History) Commit(snap Snapshot) {
	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, snap.Clone())
	if len(h.entries) > h.limit {
		h.baseline = h.entries[0]
		h.entries = h.entries[1:]
	}
	h.cursor = len(h.entries) - 1
}

// Undo steps the cursor back one entry and returns a copy of the state the
// document should be restored to. It reports false when already at the
// baseline.
func (h *History) Undo() (Snapshot, bool) {
	if h.cursor < 0 {
		return Snapshot{}, false
	}
	h.cursor--
	if h.cursor < 0 {
		return h.baseline.Clone(), true
	}
	return h.entries[h.cursor].Clone(), true
}

// Redo steps the cursor forward one entry and returns a copy of the state to
// restore. It reports false when already at the tail.
func (h *History) Redo() (Snapshot, bool) {
	if h.cursor >= len(h.entries)-1 {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor].Clone(), true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	return h.cursor >= 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of committed entries currently retained.
func (h *History) Len() int {
	return len(h.entries)
}

// Limit returns the maximum number of retained entries.
func (h *History) Limit() int {
	return h.limit
}
