package renderclient_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cutroom/internal/render"
	"cutroom/internal/renderapi"
)

// streamServer serves /events/progress, counts connections, and lets tests
// push framed messages to the active connection.
type streamServer struct {
	server *httptest.Server

	mu      sync.Mutex
	writers []chan string
	kills   []chan struct{}

	opened atomic.Int64
	closed atomic.Int64
}

func newStreamServer(t *testing.T) *streamServer {
	t.Helper()
	s := &streamServer{}
	mux := http.NewServeMux()
	mux.HandleFunc(renderapi.ProgressPath, func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer is not a flusher")
			return
		}
		s.opened.Add(1)
		defer s.closed.Add(1)

		lines := make(chan string, 16)
		kill := make(chan struct{})
		s.mu.Lock()
		s.writers = append(s.writers, lines)
		s.kills = append(s.kills, kill)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-kill:
				return
			case line := <-lines:
				fmt.Fprintln(w, line)
				flusher.Flush()
			}
		}
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *streamServer) send(t *testing.T, line string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.writers) == 0 {
		t.Fatal("no active stream connection")
	}
	s.writers[len(s.writers)-1] <- line
}

// dropActive closes the newest connection from the server side.
func (s *streamServer) dropActive(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.kills) == 0 {
		t.Fatal("no active stream connection")
	}
	close(s.kills[len(s.kills)-1])
}

func (s *streamServer) sendEvent(t *testing.T, event renderapi.ProgressEvent) {
	t.Helper()
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	s.send(t, string(raw))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStreamDispatchesByJobID(t *testing.T) {
	stream := newStreamServer(t)
	client := newTestClient(t, stream.server.URL)

	var aCount, bCount atomic.Int64
	unsubA, err := client.SubscribeProgress("job-a", func(render.ProgressUpdate) { aCount.Add(1) })
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	defer unsubA()
	unsubB, err := client.SubscribeProgress("job-b", func(render.ProgressUpdate) { bCount.Add(1) })
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}
	defer unsubB()

	if got := stream.opened.Load(); got != 1 {
		t.Fatalf("expected one shared connection, got %d", got)
	}

	stream.sendEvent(t, renderapi.ProgressEvent{JobID: "job-a", Status: render.StatusRendering, Progress: 0.2})
	stream.sendEvent(t, renderapi.ProgressEvent{JobID: "job-b", Status: render.StatusQueued})
	stream.sendEvent(t, renderapi.ProgressEvent{JobID: "job-unknown", Status: render.StatusQueued})
	stream.sendEvent(t, renderapi.ProgressEvent{JobID: "job-a", Status: render.StatusEncoding, Progress: 0.9})

	waitFor(t, "dispatched events", func() bool { return aCount.Load() == 2 && bCount.Load() == 1 })
}

func TestStreamAcceptsSSEFraming(t *testing.T) {
	stream := newStreamServer(t)
	client := newTestClient(t, stream.server.URL)

	var got atomic.Int64
	unsub, err := client.SubscribeProgress("job-a", func(update render.ProgressUpdate) {
		if update.Status == render.StatusRendering {
			got.Add(1)
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	stream.send(t, ": heartbeat")
	stream.send(t, `data: {"jobId":"job-a","status":"rendering","progress":0.5,"currentFrame":150,"totalFrames":300}`)

	waitFor(t, "sse event", func() bool { return got.Load() == 1 })
}

func TestStreamConnectionIsReferenceCounted(t *testing.T) {
	stream := newStreamServer(t)
	client := newTestClient(t, stream.server.URL)

	unsubA, err := client.SubscribeProgress("job-a", func(render.ProgressUpdate) {})
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	unsubB, err := client.SubscribeProgress("job-b", func(render.ProgressUpdate) {})
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}
	if got := stream.opened.Load(); got != 1 {
		t.Fatalf("expected one connection for two subscribers, got %d", got)
	}

	unsubA()
	unsubA() // repeat unsubscribes are harmless
	time.Sleep(10 * time.Millisecond)
	if got := stream.closed.Load(); got != 0 {
		t.Fatal("connection closed while a subscriber remained")
	}

	unsubB()
	waitFor(t, "connection close", func() bool { return stream.closed.Load() == 1 })

	// A fresh subscription reopens the stream.
	unsubC, err := client.SubscribeProgress("job-c", func(render.ProgressUpdate) {})
	if err != nil {
		t.Fatalf("subscribe c: %v", err)
	}
	defer unsubC()
	if got := stream.opened.Load(); got != 2 {
		t.Fatalf("expected reopen, got %d connections", got)
	}
}

func TestSubscribeReopensStreamAfterServerDisconnect(t *testing.T) {
	stream := newStreamServer(t)
	client := newTestClient(t, stream.server.URL)

	var aCount atomic.Int64
	unsubA, err := client.SubscribeProgress("job-a", func(render.ProgressUpdate) { aCount.Add(1) })
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	defer unsubA()

	stream.dropActive(t)
	waitFor(t, "server-side close", func() bool { return stream.closed.Load() == 1 })

	// The dead connection leaves job-a on the poll fallback. The next
	// subscription must bring the shared stream back for everyone, even
	// though the registry never emptied. Retried because the reader may not
	// have observed the disconnect yet.
	var bCount atomic.Int64
	var unsubB func()
	waitFor(t, "stream reopen", func() bool {
		unsub, err := client.SubscribeProgress("job-b", func(render.ProgressUpdate) { bCount.Add(1) })
		if err != nil {
			return false
		}
		if stream.opened.Load() >= 2 {
			unsubB = unsub
			return true
		}
		unsub()
		return false
	})
	defer func() {
		if unsubB != nil {
			unsubB()
		}
	}()

	stream.sendEvent(t, renderapi.ProgressEvent{JobID: "job-a", Status: render.StatusRendering, Progress: 0.3})
	stream.sendEvent(t, renderapi.ProgressEvent{JobID: "job-b", Status: render.StatusQueued})

	waitFor(t, "events on the new connection", func() bool { return aCount.Load() == 1 && bCount.Load() == 1 })
}

func TestSubscribeFailsWhenStreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no stream here", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL)
	if _, err := client.SubscribeProgress("job-a", func(render.ProgressUpdate) {}); err == nil {
		t.Fatal("expected subscribe error for unavailable stream")
	}
}
