// Package timeline holds the in-memory composition document model: the
// composition, its tracks and timed events, the renderable elements, and the
// Editor that mutates them while keeping track events ordered and event
// durations valid.
//
// Every shape-changing Editor operation captures a full document snapshot
// into a bounded linear history, so undo and redo restore exact prior states.
// Selection and the transient playback frame are view state and never enter
// history.
//
// The model is single-writer: one editing session owns an Editor, and each
// operation is atomic with respect to reads. Nothing in this package talks to
// the render service; remote synchronization is the render orchestrator's job.
package timeline
