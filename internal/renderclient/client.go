package renderclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"cutroom/internal/logging"
	"cutroom/internal/render"
	"cutroom/internal/renderapi"
	"cutroom/internal/timeline"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 32 << 20
	userAgent        = "cutroom/1.0"
)

// Config captures the connection settings for the render service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a JSON-RPC-over-HTTP adapter for the remote render service. It
// is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	nextID     atomic.Int64
	stream     *streamManager
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for RPC and GET requests.
// The progress stream always uses an untimed connection.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger attaches a logger for stream lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "render-client")
	}
}

// New constructs a client for the service at cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("render client: base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stream = newStreamManager(base, c.logger)
	return c, nil
}

// Close tears down the shared progress stream, if open.
func (c *Client) Close() {
	c.stream.closeAll()
}

// call posts one JSON-RPC request and decodes the result into result when
// non-nil. Errors are typed per the package taxonomy.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%s: encode params: %w", method, err)
		}
		raw = encoded
	}
	envelope := renderapi.Request{
		JSONRPC: renderapi.Version,
		Method:  method,
		Params:  raw,
		ID:      c.nextID.Add(1),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+renderapi.RPCPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: new request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: method, StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var reply renderapi.Response
	if err := json.Unmarshal(payload, &reply); err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if reply.Error != nil {
		return &ProtocolError{
			Method:  method,
			Code:    reply.Error.Code,
			Message: reply.Error.Message,
			Data:    reply.Error.Data,
		}
	}
	if result != nil {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return &TransportError{Op: method, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

// get fetches a plain JSON document from path.
func (c *Client) get(ctx context.Context, path string, result any) error {
	op := "GET " + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: string(payload)}
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// CreateComposition creates the server record for the document.
func (c *Client) CreateComposition(ctx context.Context, doc timeline.Snapshot) error {
	params := renderapi.CompositionCreateParams{Document: renderapi.DocumentFromSnapshot(doc)}
	return c.call(ctx, renderapi.MethodCompositionCreate, params, nil)
}

// UpdateComposition overwrites the server record for the document.
func (c *Client) UpdateComposition(ctx context.Context, doc timeline.Snapshot) error {
	params := renderapi.CompositionCreateParams{Document: renderapi.DocumentFromSnapshot(doc)}
	return c.call(ctx, renderapi.MethodCompositionUpdate, params, nil)
}

// GetComposition fetches the server copy of a composition document.
func (c *Client) GetComposition(ctx context.Context, id string) (timeline.Snapshot, error) {
	var result renderapi.CompositionResult
	if err := c.call(ctx, renderapi.MethodCompositionGet, renderapi.CompositionIDParams{CompositionID: id}, &result); err != nil {
		return timeline.Snapshot{}, err
	}
	return result.Document.Snapshot(), nil
}

// DeleteComposition removes the server record.
func (c *Client) DeleteComposition(ctx context.Context, id string) error {
	var result renderapi.DeletedResult
	return c.call(ctx, renderapi.MethodCompositionDelete, renderapi.CompositionIDParams{CompositionID: id}, &result)
}

// ListCompositions returns the compositions known to the service.
func (c *Client) ListCompositions(ctx context.Context) ([]timeline.Composition, error) {
	var result renderapi.CompositionListResult
	if err := c.call(ctx, renderapi.MethodCompositionList, nil, &result); err != nil {
		return nil, err
	}
	return result.Compositions, nil
}

// StartRender asks the service to render a previously synced composition
// and returns the job snapshot with its fresh job id.
func (c *Client) StartRender(ctx context.Context, compositionID string, opts render.Options) (render.Job, error) {
	var result renderapi.RenderJobResult
	params := renderapi.RenderStartParams{CompositionID: compositionID, Options: opts}
	if err := c.call(ctx, renderapi.MethodRenderStart, params, &result); err != nil {
		return render.Job{}, err
	}
	return result.Job, nil
}

// RenderStatus fetches the current job snapshot. This is the poll fallback
// behind the push stream.
func (c *Client) RenderStatus(ctx context.Context, jobID string) (render.Job, error) {
	var result renderapi.RenderJobResult
	if err := c.call(ctx, renderapi.MethodRenderStatus, renderapi.JobIDParams{JobID: jobID}, &result); err != nil {
		return render.Job{}, err
	}
	return result.Job, nil
}

// CancelRender requests cancellation of a job.
func (c *Client) CancelRender(ctx context.Context, jobID string) (bool, error) {
	var result renderapi.RenderCancelResult
	if err := c.call(ctx, renderapi.MethodRenderCancel, renderapi.JobIDParams{JobID: jobID}, &result); err != nil {
		return false, err
	}
	return result.Cancelled, nil
}

// Preview is a decoded still image returned by PreviewFrame.
type Preview struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// PreviewFrame renders a single still of the composition at the given
// frame. Stateless and idempotent; no job is created.
func (c *Client) PreviewFrame(ctx context.Context, compositionID string, frame int, scale float64) (Preview, error) {
	var result renderapi.RenderPreviewResult
	params := renderapi.RenderPreviewParams{CompositionID: compositionID, Frame: frame, Scale: scale}
	if err := c.call(ctx, renderapi.MethodRenderPreview, params, &result); err != nil {
		return Preview{}, err
	}
	data, err := base64.StdEncoding.DecodeString(result.Image)
	if err != nil {
		return Preview{}, fmt.Errorf("%s: decode image: %w", renderapi.MethodRenderPreview, err)
	}
	return Preview{Format: result.Format, Width: result.Width, Height: result.Height, Data: data}, nil
}

// ParseIntent sends free text to the intent-parsing collaborator and
// returns the composition it produced plus a textual explanation.
func (c *Client) ParseIntent(ctx context.Context, text string) (timeline.Snapshot, string, error) {
	var result renderapi.IntentParseResult
	if err := c.call(ctx, renderapi.MethodIntentParse, renderapi.IntentParseParams{Text: text}, &result); err != nil {
		return timeline.Snapshot{}, "", err
	}
	return result.Document.Snapshot(), result.Explanation, nil
}

// AgentCard fetches the discovery document.
func (c *Client) AgentCard(ctx context.Context) (renderapi.AgentCard, error) {
	var card renderapi.AgentCard
	err := c.get(ctx, renderapi.AgentCardPath, &card)
	return card, err
}

// Health probes service liveness.
func (c *Client) Health(ctx context.Context) (renderapi.HealthStatus, error) {
	var status renderapi.HealthStatus
	err := c.get(ctx, renderapi.HealthPath, &status)
	return status, err
}

// SubscribeProgress registers fn for push updates carrying jobID. The
// shared stream connection opens on the first subscription and closes once
// the last subscriber unsubscribes.
func (c *Client) SubscribeProgress(jobID string, fn func(render.ProgressUpdate)) (func(), error) {
	return c.stream.subscribe(jobID, fn)
}
