package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cutroom/internal/logging"
	"cutroom/internal/timeline"
)

// DefaultPollInterval is the cadence of the redundant status poll loop.
const DefaultPollInterval = 500 * time.Millisecond

// Orchestrator runs render requests against a remote render service. It
// tracks at most one job at a time and merges push-stream and poll updates
// into a single monotonic job state.
type Orchestrator struct {
	svc          Service
	logger       *slog.Logger
	pollInterval time.Duration
	onProgress   func(Job)

	// cbMu serializes onProgress so the stream and poll goroutines never
	// invoke the callback concurrently.
	cbMu sync.Mutex

	mu       sync.Mutex
	job      *Job
	done     chan struct{}
	resolved bool
	lastErr  string
}

// OrchestratorOption configures optional Orchestrator behavior.
type OrchestratorOption func(*Orchestrator)

// WithPollInterval overrides the status poll cadence.
func WithPollInterval(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithProgressFunc registers a callback invoked with every accepted progress
// merge. Intended for live display; the callback runs outside the state lock.
func WithProgressFunc(fn func(Job)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onProgress = fn
	}
}

// NewOrchestrator constructs an orchestrator bound to the supplied service.
func NewOrchestrator(svc Service, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		svc:          svc,
		logger:       logging.NewComponentLogger(logger, "render-orchestrator"),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Render persists the document remotely, starts a render job, and blocks
// until the job reaches a terminal status or ctx ends. Every request
// resolves exactly once: remote failures during persistence or job start
// come back as a failed Result, never as an error. An error return is
// reserved for local preconditions (invalid options, missing composition,
// or a render already in flight).
func (o *Orchestrator) Render(ctx context.Context, doc timeline.Snapshot, opts Options) (Result, error) {
	if doc.Composition == nil {
		return Result{}, ErrNoComposition
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	comp := *doc.Composition

	o.mu.Lock()
	if o.job != nil {
		o.mu.Unlock()
		return Result{}, ErrRenderInFlight
	}
	// Reserve the slot before any remote call so a concurrent request
	// cannot start a second job mid-persist.
	o.job = &Job{CompositionID: comp.ID, Status: StatusIdle}
	o.done = make(chan struct{})
	o.resolved = false
	o.lastErr = ""
	o.mu.Unlock()

	if err := o.persist(ctx, doc); err != nil {
		return o.failStart(fmt.Errorf("persist composition: %w", err)), nil
	}

	job, err := o.svc.StartRender(ctx, comp.ID, opts)
	if err != nil {
		return o.failStart(fmt.Errorf("start render: %w", err)), nil
	}

	o.mu.Lock()
	*o.job = job
	o.job.CompositionID = comp.ID
	o.job.Status = StatusQueued
	o.job.Progress = 0
	if o.job.TotalFrames == 0 {
		o.job.TotalFrames = comp.DurationInFrames
	}
	o.mu.Unlock()

	o.logger.Info("render started",
		logging.String(logging.FieldCompositionID, comp.ID),
		logging.String(logging.FieldJobID, job.JobID),
	)

	unsubscribe, err := o.svc.SubscribeProgress(job.JobID, o.applyUpdate)
	if err != nil {
		// The poll loop is a redundant channel, so a dead stream degrades to
		// poll-only monitoring instead of failing the render.
		logging.WarnWithContext(o.logger, "progress stream unavailable, polling only", "progress_stream_unavailable",
			logging.String(logging.FieldJobID, job.JobID),
			logging.String(logging.FieldErrorHint, "render continues over status polling"),
			logging.Error(err),
		)
		unsubscribe = func() {}
	}

	pollCtx, stopPoll := context.WithCancel(context.Background())
	pollDone := make(chan struct{})
	go o.pollLoop(pollCtx, job.JobID, pollDone)

	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		o.CancelRender(context.Background())
	}

	stopPoll()
	<-pollDone
	unsubscribe()

	o.mu.Lock()
	final := *o.job
	o.mu.Unlock()

	// Push messages carry no output location, so when the stream wins the
	// race to terminal the uri is fetched from the final job snapshot.
	if final.Status == StatusCompleted && final.OutputURI == "" {
		if snap, err := o.svc.RenderStatus(ctx, job.JobID); err == nil {
			final.OutputURI = snap.OutputURI
		}
	}

	o.mu.Lock()
	o.job = nil
	o.mu.Unlock()

	return o.resolve(final, comp), nil
}

// persist overwrites the server copy of the composition, creating the
// record when the id is unknown remotely. No diffing: the local document is
// the source of truth.
func (o *Orchestrator) persist(ctx context.Context, doc timeline.Snapshot) error {
	id := doc.Composition.ID
	_, err := o.svc.GetComposition(ctx, id)
	switch {
	case err == nil:
		return o.svc.UpdateComposition(ctx, doc)
	case errors.Is(err, ErrNotFound):
		return o.svc.CreateComposition(ctx, doc)
	default:
		return err
	}
}

func (o *Orchestrator) failStart(err error) Result {
	logging.ErrorWithContext(o.logger, "render request failed", "render_start_failed",
		logging.String(logging.FieldErrorHint, "verify the render service is reachable"),
		logging.Error(err),
	)
	o.mu.Lock()
	o.job = nil
	o.lastErr = err.Error()
	o.mu.Unlock()
	return Result{Success: false, Error: err.Error()}
}

func (o *Orchestrator) resolve(final Job, comp timeline.Composition) Result {
	switch final.Status {
	case StatusCompleted:
		return Result{
			Success:   true,
			JobID:     final.JobID,
			OutputURI: final.OutputURI,
			Duration:  comp.DurationSeconds(),
		}
	case StatusCancelled:
		return Result{Success: false, JobID: final.JobID, Error: "render cancelled"}
	default:
		message := final.Error
		if message == "" {
			message = fmt.Sprintf("render ended with status %s", final.Status)
		}
		o.mu.Lock()
		o.lastErr = message
		o.mu.Unlock()
		return Result{Success: false, JobID: final.JobID, Error: message}
	}
}

// pollLoop queries the remote job status on a fixed interval as the fallback
// progress channel. It exits when the job reaches a terminal status, the
// tracked job is cleared, or ctx ends. There is no duration cap: the loop
// runs until something terminal happens.
func (o *Orchestrator) pollLoop(ctx context.Context, jobID string, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		o.mu.Lock()
		tracked := o.job != nil && o.job.JobID == jobID && !o.job.Status.Terminal()
		o.mu.Unlock()
		if !tracked {
			return
		}

		job, err := o.svc.RenderStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Debug("status poll failed",
				logging.String(logging.FieldJobID, jobID),
				logging.Error(err),
			)
			continue
		}
		o.applyUpdate(UpdateFromJob(job))
	}
}

// applyUpdate merges one observation into the tracked job. Updates are
// applied monotonically: an update whose lifecycle rank is below the
// recorded status is stale (the other channel already moved past it) and is
// dropped, as is anything arriving after a terminal status.
func (o *Orchestrator) applyUpdate(update ProgressUpdate) {
	o.mu.Lock()
	job := o.job
	if job == nil || job.JobID != update.JobID || job.Status.Terminal() {
		o.mu.Unlock()
		return
	}
	if update.Status.Rank() < job.Status.Rank() {
		o.mu.Unlock()
		return
	}
	if update.Status == StatusPaused && job.Status != StatusRendering && job.Status != StatusPaused {
		o.mu.Unlock()
		return
	}

	job.Status = update.Status
	if update.Progress > job.Progress {
		job.Progress = update.Progress
	}
	if update.CurrentFrame > job.CurrentFrame {
		job.CurrentFrame = update.CurrentFrame
	}
	if update.TotalFrames > 0 {
		job.TotalFrames = update.TotalFrames
	}
	if update.ETA > 0 {
		job.ETA = update.ETA
	}
	if update.Error != "" {
		job.Error = update.Error
	}
	if job.Status == StatusCompleted {
		job.Progress = 1
	}

	snapshot := *job
	var resolvedNow chan struct{}
	if job.Status.Terminal() && !o.resolved {
		o.resolved = true
		resolvedNow = o.done
	}
	o.mu.Unlock()

	o.notifyProgress(snapshot)
	if resolvedNow != nil {
		close(resolvedNow)
	}
}

func (o *Orchestrator) notifyProgress(snapshot Job) {
	if o.onProgress == nil {
		return
	}
	o.cbMu.Lock()
	defer o.cbMu.Unlock()
	o.onProgress(snapshot)
}

// CancelRender cancels the in-flight job: local state flips to cancelled
// immediately (ending the monitor loop and resolving the pending request)
// and a best-effort cancel is sent to the service. It reports false when no
// job is being tracked.
func (o *Orchestrator) CancelRender(ctx context.Context) bool {
	o.mu.Lock()
	job := o.job
	if job == nil || job.Status == StatusIdle || job.Status.Terminal() {
		o.mu.Unlock()
		return false
	}
	jobID := job.JobID
	job.Status = StatusCancelled
	snapshot := *job
	var resolvedNow chan struct{}
	if !o.resolved {
		o.resolved = true
		resolvedNow = o.done
	}
	o.mu.Unlock()

	o.notifyProgress(snapshot)
	if resolvedNow != nil {
		close(resolvedNow)
	}

	if _, err := o.svc.CancelRender(ctx, jobID); err != nil {
		o.logger.Warn("remote cancel failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err),
		)
	}
	o.logger.Info("render cancelled", logging.String(logging.FieldJobID, jobID))
	return true
}

// Status returns a copy of the tracked job, if any.
func (o *Orchestrator) Status() (Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return Job{}, false
	}
	return *o.job, true
}

// LastError returns the most recent render failure message, if any.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}
