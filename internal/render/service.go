package render

import (
	"context"
	"errors"

	"cutroom/internal/timeline"
)

var (
	// ErrNotFound marks remote lookups for compositions or jobs that do not
	// exist on the render service.
	ErrNotFound = errors.New("not found")
	// ErrRenderInFlight is returned when a render is requested while another
	// job is already being tracked by the same orchestrator.
	ErrRenderInFlight = errors.New("render already in flight")
	// ErrNoComposition is returned when a render is requested for a document
	// without a composition.
	ErrNoComposition = errors.New("no composition to render")
)

// Service is the remote render surface the orchestrator depends on. The
// wire client implements it; tests substitute stubs. Implementations must
// not retry failed calls, retry policy belongs to the caller.
type Service interface {
	CreateComposition(ctx context.Context, doc timeline.Snapshot) error
	UpdateComposition(ctx context.Context, doc timeline.Snapshot) error
	GetComposition(ctx context.Context, id string) (timeline.Snapshot, error)
	StartRender(ctx context.Context, compositionID string, opts Options) (Job, error)
	RenderStatus(ctx context.Context, jobID string) (Job, error)
	CancelRender(ctx context.Context, jobID string) (bool, error)
	// SubscribeProgress registers fn for push updates carrying jobID and
	// returns an unsubscribe func. The underlying connection is shared and
	// reference-counted by the implementation.
	SubscribeProgress(jobID string, fn func(ProgressUpdate)) (func(), error)
}
