package render

import "strings"

// Status represents the lifecycle of a render job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusQueued    Status = "queued"
	StatusRendering Status = "rendering"
	StatusEncoding  Status = "encoding"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusPaused    Status = "paused"
)

var allStatuses = []Status{
	StatusIdle,
	StatusQueued,
	StatusRendering,
	StatusEncoding,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
	StatusPaused,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// statusRank orders statuses along the job lifecycle so the progress merge
// can reject updates that would move a job backwards. Paused shares the
// rendering rank because a job only pauses mid-render.
var statusRank = map[Status]int{
	StatusIdle:      0,
	StatusQueued:    1,
	StatusRendering: 2,
	StatusPaused:    2,
	StatusEncoding:  3,
	StatusCompleted: 4,
	StatusFailed:    4,
	StatusCancelled: 4,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status ends a job's lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Rank returns the lifecycle position used for monotonic progress merging.
// Unknown statuses rank below idle so they never displace recorded state.
func (s Status) Rank() int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}
