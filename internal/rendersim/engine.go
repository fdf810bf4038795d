package rendersim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/logging"
	"cutroom/internal/render"
	"cutroom/internal/renderapi"
	"cutroom/internal/timeline"
)

const (
	// renderTicks is how many ticks the rendering phase spreads the frame
	// count across.
	renderTicks = 8
	// encodeTicks is how long the encoding phase lasts.
	encodeTicks = 2
)

// engine fabricates render job lifecycles. Each started job advances
// queued, rendering, encoding, completed on a fixed tick, publishing every
// transition to the hub. Cancellation flips any non-terminal job to
// cancelled and stops its ticker.
type engine struct {
	logger *slog.Logger
	hub    *progressHub
	tick   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*render.Job
	wg   sync.WaitGroup
}

func newEngine(hub *progressHub, tick time.Duration, logger *slog.Logger) *engine {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &engine{
		logger: logging.NewComponentLogger(logger, "sim-engine"),
		hub:    hub,
		tick:   tick,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*render.Job),
	}
}

// close stops all job tickers and waits for them to exit.
func (e *engine) close() {
	e.cancel()
	e.wg.Wait()
}

// start creates a queued job for the composition and begins its lifecycle.
func (e *engine) start(comp timeline.Composition, opts render.Options) render.Job {
	totalFrames := comp.DurationInFrames
	if opts.FrameRange != nil {
		totalFrames = opts.FrameRange.End - opts.FrameRange.Start
	}
	if totalFrames < 1 {
		totalFrames = 1
	}

	job := &render.Job{
		JobID:         uuid.NewString(),
		CompositionID: comp.ID,
		Status:        render.StatusQueued,
		TotalFrames:   totalFrames,
	}

	e.mu.Lock()
	e.jobs[job.JobID] = job
	snapshot := *job
	e.mu.Unlock()

	e.logger.Info("job queued",
		logging.String(logging.FieldJobID, job.JobID),
		logging.String(logging.FieldCompositionID, comp.ID),
		logging.Int("total_frames", totalFrames),
	)
	e.publish(snapshot)

	e.wg.Add(1)
	go e.run(job.JobID, string(opts.Format))
	return snapshot
}

// status returns a copy of the job snapshot.
func (e *engine) status(jobID string) (render.Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[jobID]
	if !ok {
		return render.Job{}, false
	}
	return *job, true
}

// cancelJob flips a non-terminal job to cancelled.
func (e *engine) cancelJob(jobID string) bool {
	e.mu.Lock()
	job, ok := e.jobs[jobID]
	if !ok || job.Status.Terminal() {
		e.mu.Unlock()
		return false
	}
	job.Status = render.StatusCancelled
	snapshot := *job
	e.mu.Unlock()

	e.logger.Info("job cancelled", logging.String(logging.FieldJobID, jobID))
	e.publish(snapshot)
	return true
}

func (e *engine) run(jobID, format string) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	encodeLeft := encodeTicks
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		job, ok := e.jobs[jobID]
		if !ok || job.Status.Terminal() {
			e.mu.Unlock()
			return
		}

		switch job.Status {
		case render.StatusQueued:
			job.Status = render.StatusRendering
		case render.StatusRendering:
			step := job.TotalFrames / renderTicks
			if step < 1 {
				step = 1
			}
			job.CurrentFrame += step
			if job.CurrentFrame >= job.TotalFrames {
				job.CurrentFrame = job.TotalFrames
				job.Status = render.StatusEncoding
			}
			job.Progress = float64(job.CurrentFrame) / float64(job.TotalFrames)
			remaining := (job.TotalFrames - job.CurrentFrame) / step
			job.ETA = float64(remaining+encodeTicks) * e.tick.Seconds()
		case render.StatusEncoding:
			encodeLeft--
			if encodeLeft <= 0 {
				job.Status = render.StatusCompleted
				job.Progress = 1
				job.ETA = 0
				job.OutputURI = outputURI(job.JobID, format)
			}
		}

		snapshot := *job
		e.mu.Unlock()
		e.publish(snapshot)

		if snapshot.Status.Terminal() {
			e.logger.Info("job finished",
				logging.String(logging.FieldJobID, jobID),
				logging.String(logging.FieldStatus, string(snapshot.Status)),
			)
			return
		}
	}
}

func (e *engine) publish(job render.Job) {
	e.hub.publish(renderapi.ProgressEvent{
		JobID:        job.JobID,
		Status:       job.Status,
		Progress:     job.Progress,
		CurrentFrame: job.CurrentFrame,
		TotalFrames:  job.TotalFrames,
		ETA:          job.ETA,
		Error:        job.Error,
	})
}

func outputURI(jobID, format string) string {
	if format == string(render.FormatPNGSequence) {
		return fmt.Sprintf("file:///renders/%s/", jobID)
	}
	if format == "" {
		format = string(render.FormatMP4)
	}
	return fmt.Sprintf("file:///renders/%s.%s", jobID, format)
}
