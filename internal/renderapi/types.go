package renderapi

import (
	"encoding/json"

	"cutroom/internal/render"
	"cutroom/internal/timeline"
)

// Version is the JSON-RPC protocol version carried by every envelope.
const Version = "2.0"

// RPCPath is the endpoint all method calls are posted to.
const RPCPath = "/rpc"

// AgentCardPath serves the discovery document.
const AgentCardPath = "/.well-known/agent.json"

// HealthPath serves the liveness probe.
const HealthPath = "/health"

// ProgressPath serves the server-push progress stream.
const ProgressPath = "/events/progress"

// RPC method names.
const (
	MethodCompositionCreate = "composition.create"
	MethodCompositionGet    = "composition.get"
	MethodCompositionUpdate = "composition.update"
	MethodCompositionDelete = "composition.delete"
	MethodCompositionList   = "composition.list"
	MethodRenderStart       = "render.start"
	MethodRenderStatus      = "render.status"
	MethodRenderCancel      = "render.cancel"
	MethodRenderPreview     = "render.preview"
	MethodIntentParse       = "intent.parse"
)

// JSON-RPC error codes. The -32xxx range below -32603 is reserved by the
// protocol; server-defined codes start at -32000.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeRenderFailed   = -32001
)

// Request is a JSON-RPC 2.0 call envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      int64           `json:"id"`
}

// Response is a JSON-RPC 2.0 reply envelope. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// ErrorObject is the JSON-RPC error payload.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Document is the full composition document exchanged with the service. The
// local document is the source of truth; the server copy is always
// overwritten, never merged.
type Document struct {
	Composition timeline.Composition        `json:"composition"`
	Tracks      []timeline.Track            `json:"tracks"`
	Elements    map[string]timeline.Element `json:"elements,omitempty"`
}

// DocumentFromSnapshot converts an editor snapshot into its wire form.
func DocumentFromSnapshot(snap timeline.Snapshot) Document {
	doc := Document{
		Tracks:   snap.Tracks,
		Elements: snap.Elements,
	}
	if snap.Composition != nil {
		doc.Composition = *snap.Composition
	}
	if doc.Tracks == nil {
		doc.Tracks = []timeline.Track{}
	}
	return doc
}

// Snapshot converts the wire document back into an editor snapshot.
func (d Document) Snapshot() timeline.Snapshot {
	comp := d.Composition
	return timeline.Snapshot{
		Composition: &comp,
		Tracks:      d.Tracks,
		Elements:    d.Elements,
	}
}

// CompositionCreateParams carries composition.create and composition.update
// calls.
type CompositionCreateParams struct {
	Document Document `json:"document"`
}

// CompositionIDParams addresses a composition by id.
type CompositionIDParams struct {
	CompositionID string `json:"compositionId"`
}

// CompositionResult returns one composition document.
type CompositionResult struct {
	Document Document `json:"document"`
}

// CompositionListResult returns the compositions known to the service.
type CompositionListResult struct {
	Compositions []timeline.Composition `json:"compositions"`
}

// DeletedResult acknowledges a delete.
type DeletedResult struct {
	Deleted bool `json:"deleted"`
}

// RenderStartParams requests a render of a previously synced composition.
type RenderStartParams struct {
	CompositionID string         `json:"compositionId"`
	Options       render.Options `json:"options"`
}

// JobIDParams addresses a render job by id.
type JobIDParams struct {
	JobID string `json:"jobId"`
}

// RenderJobResult returns one job snapshot.
type RenderJobResult struct {
	Job render.Job `json:"job"`
}

// RenderCancelResult acknowledges a cancel request.
type RenderCancelResult struct {
	Cancelled bool `json:"cancelled"`
}

// RenderPreviewParams requests a still frame. Scale is a multiplier applied
// to the composition dimensions; zero means full size.
type RenderPreviewParams struct {
	CompositionID string  `json:"compositionId"`
	Frame         int     `json:"frame"`
	Scale         float64 `json:"scale,omitempty"`
}

// RenderPreviewResult carries an encoded still image.
type RenderPreviewResult struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Image  string `json:"image"` // base64
}

// IntentParseParams sends free text to the intent-parsing collaborator.
type IntentParseParams struct {
	Text string `json:"text"`
}

// IntentParseResult returns the composition built from the text plus a
// human-readable explanation of what was understood.
type IntentParseResult struct {
	Document    Document `json:"document"`
	Explanation string   `json:"explanation"`
}

// AgentCard is the discovery document under /.well-known/agent.json.
type AgentCard struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// HealthStatus is the liveness document under /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ProgressEvent is one server-push message on /events/progress. Messages
// for all jobs share the stream; consumers route by JobID.
type ProgressEvent struct {
	JobID        string        `json:"jobId"`
	Status       render.Status `json:"status"`
	Progress     float64       `json:"progress"`
	CurrentFrame int           `json:"currentFrame"`
	TotalFrames  int           `json:"totalFrames"`
	ETA          float64       `json:"eta,omitempty"`
	PreviewFrame string        `json:"previewFrame,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Update converts a push event into the orchestrator's merge input.
func (e ProgressEvent) Update() render.ProgressUpdate {
	return render.ProgressUpdate{
		JobID:        e.JobID,
		Status:       e.Status,
		Progress:     e.Progress,
		CurrentFrame: e.CurrentFrame,
		TotalFrames:  e.TotalFrames,
		ETA:          e.ETA,
		PreviewFrame: e.PreviewFrame,
		Error:        e.Error,
	}
}
