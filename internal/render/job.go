package render

// Job is a snapshot of a server-tracked render job. The JSON shape matches
// the wire payloads exchanged with the render service.
type Job struct {
	JobID         string  `json:"jobId"`
	CompositionID string  `json:"compositionId"`
	Status        Status  `json:"status"`
	Progress      float64 `json:"progress"`
	CurrentFrame  int     `json:"currentFrame"`
	TotalFrames   int     `json:"totalFrames"`
	ETA           float64 `json:"eta,omitempty"`
	Error         string  `json:"error,omitempty"`
	OutputURI     string  `json:"outputUri,omitempty"`
}

// ProgressUpdate is one observation of a job's state, arriving from either
// the push stream or the poll fallback. The two channels carry the same
// shape and no ordering guarantee between them is assumed.
type ProgressUpdate struct {
	JobID        string  `json:"jobId"`
	Status       Status  `json:"status"`
	Progress     float64 `json:"progress"`
	CurrentFrame int     `json:"currentFrame"`
	TotalFrames  int     `json:"totalFrames"`
	ETA          float64 `json:"eta,omitempty"`
	PreviewFrame string  `json:"previewFrame,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// UpdateFromJob converts a polled job snapshot into a progress update.
func UpdateFromJob(job Job) ProgressUpdate {
	return ProgressUpdate{
		JobID:        job.JobID,
		Status:       job.Status,
		Progress:     job.Progress,
		CurrentFrame: job.CurrentFrame,
		TotalFrames:  job.TotalFrames,
		ETA:          job.ETA,
		Error:        job.Error,
	}
}

// Result is the single outcome resolved for one render request.
type Result struct {
	Success   bool    `json:"success"`
	JobID     string  `json:"jobId,omitempty"`
	OutputURI string  `json:"outputUri,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Error     string  `json:"error,omitempty"`
}
