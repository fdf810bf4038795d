package renderclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"cutroom/internal/logging"
	"cutroom/internal/render"
	"cutroom/internal/renderapi"
)

const maxStreamLineBytes = 1 << 20

// streamManager owns the shared push-stream connection. Its lifetime is
// reference-counted by the subscriber registry, not tied to job count: the
// connection opens when the registry becomes non-empty and closes when it
// empties.
type streamManager struct {
	baseURL string
	logger  *slog.Logger
	// Streaming reads must not be bounded by a request timeout, so the
	// manager keeps its own untimed client.
	httpClient *http.Client

	mu      sync.Mutex
	subs    map[string]func(render.ProgressUpdate)
	cancel  context.CancelFunc
	opening bool
	gen     int
}

func newStreamManager(baseURL string, logger *slog.Logger) *streamManager {
	return &streamManager{
		baseURL:    baseURL,
		logger:     logger,
		httpClient: &http.Client{},
		subs:       make(map[string]func(render.ProgressUpdate)),
	}
}

// subscribe registers fn for events carrying jobID, opening the shared
// connection whenever none is live: the first registration, or the first one
// after the previous stream ended while subscribers remained. Registering the
// same job id twice replaces the previous handler. The returned func removes
// the registration and is safe to call more than once.
func (m *streamManager) subscribe(jobID string, fn func(render.ProgressUpdate)) (func(), error) {
	if jobID == "" || fn == nil {
		return nil, fmt.Errorf("progress subscribe: job id and handler required")
	}

	m.mu.Lock()
	needOpen := m.cancel == nil && !m.opening
	if needOpen {
		m.opening = true
	}
	m.subs[jobID] = fn
	m.mu.Unlock()

	if needOpen {
		err := m.open()
		m.mu.Lock()
		m.opening = false
		if err != nil {
			delete(m.subs, jobID)
		}
		m.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.unsubscribe(jobID) })
	}, nil
}

func (m *streamManager) unsubscribe(jobID string) {
	m.mu.Lock()
	delete(m.subs, jobID)
	var cancel context.CancelFunc
	if len(m.subs) == 0 {
		cancel = m.cancel
		m.cancel = nil
	}
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// closeAll drops every subscriber and closes the connection.
func (m *streamManager) closeAll() {
	m.mu.Lock()
	m.subs = make(map[string]func(render.ProgressUpdate))
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// open connects the push stream synchronously so a connect failure surfaces
// to the first subscriber, then hands the body to a reader goroutine.
func (m *streamManager) open() error {
	ctx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+renderapi.ProgressPath, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("progress stream: new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/x-ndjson, text/event-stream")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		cancel()
		return &TransportError{Op: "progress stream", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return &TransportError{Op: "progress stream", StatusCode: resp.StatusCode}
	}

	m.mu.Lock()
	if len(m.subs) == 0 {
		// Every subscriber left while the connection was being opened.
		m.mu.Unlock()
		resp.Body.Close()
		cancel()
		return nil
	}
	m.cancel = cancel
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	go m.readLoop(resp, gen)
	return nil
}

// readLoop consumes the stream until it ends, routing each event to the
// subscriber registered for its job id. Messages for unknown jobs are
// dropped. If the stream dies while subscribers remain, monitoring
// degrades to the poll fallback until the next subscription reconnects.
func (m *streamManager) readLoop(resp *http.Response, gen int) {
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineBytes)
	for scanner.Scan() {
		payload := decodeStreamLine(scanner.Text())
		if payload == "" {
			continue
		}
		var event renderapi.ProgressEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			m.logger.Debug("skipping malformed progress message", logging.Error(err))
			continue
		}
		m.mu.Lock()
		fn := m.subs[event.JobID]
		m.mu.Unlock()
		if fn != nil {
			fn(event.Update())
		}
	}

	m.mu.Lock()
	stale := m.gen != gen
	remaining := len(m.subs)
	if !stale {
		m.cancel = nil
	}
	m.mu.Unlock()
	if stale {
		return
	}

	if err := scanner.Err(); err != nil && remaining > 0 && !strings.Contains(err.Error(), "context canceled") {
		m.logger.Warn("progress stream ended, relying on status polling",
			logging.Int("subscribers", remaining),
			logging.Error(err),
		)
	}
}

// decodeStreamLine extracts the JSON payload from one stream line. Both
// NDJSON lines and SSE "data:" framing are accepted; blank lines and SSE
// comments are skipped.
func decodeStreamLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ":") {
		return ""
	}
	if strings.HasPrefix(trimmed, "data:") {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
	}
	if strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	return ""
}
