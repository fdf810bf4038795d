package rendersim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cutroom/internal/logging"
	"cutroom/internal/render"
	"cutroom/internal/renderapi"
	"cutroom/internal/renderclient"
	"cutroom/internal/timeline"
)

func newTestServer(t *testing.T, tick time.Duration) (*Server, *renderclient.Client) {
	t.Helper()
	sim := NewServer(Options{Tick: tick}, nil)
	ts := httptest.NewServer(sim.Handler())
	t.Cleanup(func() {
		sim.Close()
		ts.Close()
	})

	client, err := renderclient.New(renderclient.Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(client.Close)
	return sim, client
}

func testSnapshot(id string, frames int) timeline.Snapshot {
	return timeline.Snapshot{
		Composition: &timeline.Composition{
			ID:               id,
			Name:             "Test Comp",
			Width:            640,
			Height:           360,
			FPS:              30,
			DurationInFrames: frames,
			BackgroundColor:  "#2244cc",
		},
		Tracks: []timeline.Track{},
	}
}

func TestCompositionLifecycle(t *testing.T) {
	_, client := newTestServer(t, time.Minute)
	ctx := context.Background()

	if err := client.CreateComposition(ctx, testSnapshot("comp-1", 60)); err != nil {
		t.Fatalf("CreateComposition: %v", err)
	}

	snap, err := client.GetComposition(ctx, "comp-1")
	if err != nil {
		t.Fatalf("GetComposition: %v", err)
	}
	if snap.Composition == nil || snap.Composition.Name != "Test Comp" {
		t.Fatalf("unexpected composition: %+v", snap.Composition)
	}

	updated := testSnapshot("comp-1", 120)
	updated.Composition.Name = "Renamed"
	if err := client.UpdateComposition(ctx, updated); err != nil {
		t.Fatalf("UpdateComposition: %v", err)
	}
	snap, err = client.GetComposition(ctx, "comp-1")
	if err != nil {
		t.Fatalf("GetComposition after update: %v", err)
	}
	if snap.Composition.Name != "Renamed" || snap.Composition.DurationInFrames != 120 {
		t.Fatalf("update not applied: %+v", snap.Composition)
	}

	comps, err := client.ListCompositions(ctx)
	if err != nil {
		t.Fatalf("ListCompositions: %v", err)
	}
	if len(comps) != 1 || comps[0].ID != "comp-1" {
		t.Fatalf("unexpected list: %+v", comps)
	}

	if err := client.DeleteComposition(ctx, "comp-1"); err != nil {
		t.Fatalf("DeleteComposition: %v", err)
	}
	if _, err := client.GetComposition(ctx, "comp-1"); !errors.Is(err, render.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRenderJobRunsToCompletion(t *testing.T) {
	_, client := newTestServer(t, 5*time.Millisecond)
	ctx := context.Background()

	if err := client.CreateComposition(ctx, testSnapshot("comp-render", 48)); err != nil {
		t.Fatalf("CreateComposition: %v", err)
	}
	job, err := client.StartRender(ctx, "comp-render", render.DefaultOptions())
	if err != nil {
		t.Fatalf("StartRender: %v", err)
	}
	if job.Status != render.StatusQueued || job.TotalFrames != 48 {
		t.Fatalf("unexpected initial job: %+v", job)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		job, err = client.RenderStatus(ctx, job.JobID)
		if err != nil {
			t.Fatalf("RenderStatus: %v", err)
		}
		if job.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never finished, stuck at %s", job.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if job.Status != render.StatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.Progress != 1 || job.CurrentFrame != 48 {
		t.Fatalf("completed job has progress %v frame %d", job.Progress, job.CurrentFrame)
	}
	if !strings.HasPrefix(job.OutputURI, "file:///renders/") || !strings.HasSuffix(job.OutputURI, ".mp4") {
		t.Fatalf("unexpected output uri %q", job.OutputURI)
	}
}

func TestRenderCancelStopsJob(t *testing.T) {
	_, client := newTestServer(t, 50*time.Millisecond)
	ctx := context.Background()

	if err := client.CreateComposition(ctx, testSnapshot("comp-cancel", 600)); err != nil {
		t.Fatalf("CreateComposition: %v", err)
	}
	job, err := client.StartRender(ctx, "comp-cancel", render.DefaultOptions())
	if err != nil {
		t.Fatalf("StartRender: %v", err)
	}

	cancelled, err := client.CancelRender(ctx, job.JobID)
	if err != nil {
		t.Fatalf("CancelRender: %v", err)
	}
	if !cancelled {
		t.Fatal("expected cancel to take effect")
	}

	job, err = client.RenderStatus(ctx, job.JobID)
	if err != nil {
		t.Fatalf("RenderStatus: %v", err)
	}
	if job.Status != render.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", job.Status)
	}

	// A second cancel acknowledges without flipping anything.
	cancelled, err = client.CancelRender(ctx, job.JobID)
	if err != nil {
		t.Fatalf("second CancelRender: %v", err)
	}
	if cancelled {
		t.Fatal("terminal job reported as newly cancelled")
	}
}

func TestPreviewFrameDimensions(t *testing.T) {
	_, client := newTestServer(t, time.Minute)
	ctx := context.Background()

	if err := client.CreateComposition(ctx, testSnapshot("comp-prev", 60)); err != nil {
		t.Fatalf("CreateComposition: %v", err)
	}
	preview, err := client.PreviewFrame(ctx, "comp-prev", 10, 0.5)
	if err != nil {
		t.Fatalf("PreviewFrame: %v", err)
	}
	if preview.Format != "png" || preview.Width != 320 || preview.Height != 180 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	img, err := png.Decode(bytes.NewReader(preview.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 320 || bounds.Dy() != 180 {
		t.Fatalf("decoded image is %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestIntentParseHeuristics(t *testing.T) {
	_, client := newTestServer(t, time.Minute)
	ctx := context.Background()

	snap, explanation, err := client.ParseIntent(ctx, "Make a 4 second blue intro in 720p at 24 fps")
	if err != nil {
		t.Fatalf("ParseIntent: %v", err)
	}
	comp := snap.Composition
	if comp == nil {
		t.Fatal("no composition in parsed document")
	}
	if comp.Width != 1280 || comp.Height != 720 {
		t.Fatalf("resolution not honored: %dx%d", comp.Width, comp.Height)
	}
	if comp.FPS != 24 {
		t.Fatalf("fps not honored: %v", comp.FPS)
	}
	if comp.DurationInFrames != 96 {
		t.Fatalf("duration not honored: %d frames", comp.DurationInFrames)
	}
	if comp.BackgroundColor != "#2244cc" {
		t.Fatalf("color not honored: %q", comp.BackgroundColor)
	}
	if len(snap.Tracks) != 1 || snap.Tracks[0].Type != timeline.TrackText {
		t.Fatalf("expected one text track, got %+v", snap.Tracks)
	}
	if explanation == "" {
		t.Fatal("expected an explanation")
	}
}

func TestDiscoveryAndHealth(t *testing.T) {
	_, client := newTestServer(t, time.Minute)
	ctx := context.Background()

	card, err := client.AgentCard(ctx)
	if err != nil {
		t.Fatalf("AgentCard: %v", err)
	}
	if card.Name != "cutroom-rendersim" || len(card.Capabilities) == 0 {
		t.Fatalf("unexpected card %+v", card)
	}

	health, err := client.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestProgressStreamDeliversLifecycle(t *testing.T) {
	// Ticks slow enough that the job is still running when the stream
	// subscription attaches; the job id is only known after render.start.
	_, client := newTestServer(t, 30*time.Millisecond)
	ctx := context.Background()

	if err := client.CreateComposition(ctx, testSnapshot("comp-stream", 48)); err != nil {
		t.Fatalf("CreateComposition: %v", err)
	}

	updates := make(chan render.ProgressUpdate, 128)
	job, err := client.StartRender(ctx, "comp-stream", render.DefaultOptions())
	if err != nil {
		t.Fatalf("StartRender: %v", err)
	}
	unsubscribe, err := client.SubscribeProgress(job.JobID, func(u render.ProgressUpdate) {
		updates <- u
	})
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	defer unsubscribe()

	sawRendering := false
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.JobID != job.JobID {
				t.Fatalf("event for wrong job %q", u.JobID)
			}
			if u.Status == render.StatusRendering {
				sawRendering = true
			}
			if u.Status == render.StatusCompleted {
				if !sawRendering {
					t.Fatal("completed arrived without any rendering event")
				}
				return
			}
		case <-deadline:
			t.Fatal("stream never delivered completion")
		}
	}
}

func TestOrchestratorAgainstSimulator(t *testing.T) {
	_, client := newTestServer(t, 5*time.Millisecond)
	ctx := context.Background()

	var mu sync.Mutex
	var progressStatuses []render.Status
	orc := render.NewOrchestrator(client, nil,
		render.WithPollInterval(10*time.Millisecond),
		render.WithProgressFunc(func(job render.Job) {
			mu.Lock()
			progressStatuses = append(progressStatuses, job.Status)
			mu.Unlock()
		}),
	)

	result, err := orc.Render(ctx, testSnapshot("comp-e2e", 48), render.DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !result.Success {
		t.Fatalf("render failed: %s", result.Error)
	}
	if !strings.HasPrefix(result.OutputURI, "file:///renders/") {
		t.Fatalf("unexpected output uri %q", result.OutputURI)
	}
	mu.Lock()
	statuses := append([]render.Status(nil), progressStatuses...)
	mu.Unlock()
	if len(statuses) == 0 {
		t.Fatal("no progress callbacks fired")
	}
	if last := statuses[len(statuses)-1]; last != render.StatusCompleted {
		t.Fatalf("last progress status %s", last)
	}
	if _, tracked := orc.Status(); tracked {
		t.Fatal("job still tracked after render resolved")
	}
}

func TestRPCErrorCodes(t *testing.T) {
	sim := NewServer(Options{Tick: time.Minute}, nil)
	ts := httptest.NewServer(sim.Handler())
	defer func() {
		sim.Close()
		ts.Close()
	}()

	post := func(t *testing.T, body string) renderapi.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+renderapi.RPCPath, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer resp.Body.Close()
		var envelope renderapi.Response
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return envelope
	}

	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{`, renderapi.CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","method":"composition.list","id":1}`, renderapi.CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","method":"composition.explode","id":2}`, renderapi.CodeMethodNotFound},
		{"missing params", `{"jsonrpc":"2.0","method":"composition.get","id":3}`, renderapi.CodeInvalidParams},
		{"missing composition", `{"jsonrpc":"2.0","method":"composition.get","params":{"compositionId":"ghost"},"id":4}`, renderapi.CodeNotFound},
		{"bad render options", `{"jsonrpc":"2.0","method":"render.start","params":{"compositionId":"ghost","options":{"format":"avi"}},"id":5}`, renderapi.CodeInvalidParams},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			envelope := post(t, tc.body)
			if envelope.Error == nil {
				t.Fatalf("expected error, got result %s", envelope.Result)
			}
			if envelope.Error.Code != tc.code {
				t.Fatalf("expected code %d, got %d (%s)", tc.code, envelope.Error.Code, envelope.Error.Message)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b uint8
	}{
		{"#ffffff", 0xff, 0xff, 0xff},
		{"#2244cc", 0x22, 0x44, 0xcc},
		{"#f0a", 0xff, 0x00, 0xaa},
		{"", 0, 0, 0},
		{"not-a-color", 0, 0, 0},
	}
	for _, tc := range cases {
		got := parseHexColor(tc.in)
		if got.R != tc.r || got.G != tc.g || got.B != tc.b {
			t.Errorf("parseHexColor(%q) = %+v", tc.in, got)
		}
	}
}

func TestIntentParseRejectsEmptyText(t *testing.T) {
	_, client := newTestServer(t, time.Minute)
	if _, _, err := client.ParseIntent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank intent text")
	}
}

func TestProgressHubEvictsWhenSlow(t *testing.T) {
	hub := newProgressHub()
	id, events := hub.subscribe()
	defer hub.unsubscribe(id)

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.publish(renderapi.ProgressEvent{JobID: "job", CurrentFrame: i})
	}

	// The oldest events were evicted; the channel holds the newest window.
	first := <-events
	if first.CurrentFrame != 10 {
		t.Fatalf("expected oldest surviving frame 10, got %d", first.CurrentFrame)
	}
	var last renderapi.ProgressEvent
	for len(events) > 0 {
		last = <-events
	}
	if last.CurrentFrame != subscriberBuffer+9 {
		t.Fatalf("expected newest frame %d, got %d", subscriberBuffer+9, last.CurrentFrame)
	}
}

func TestRecoveryMiddlewareLogsPanics(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	handler := requestIDMiddleware()(recoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, renderapi.RPCPath, nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	logged := logBuf.String()
	if !strings.Contains(logged, "panic recovered") {
		t.Fatalf("expected recovered panic in log, got %q", logged)
	}
	for _, field := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldCorrelationID} {
		if !strings.Contains(logged, field) {
			t.Fatalf("expected %s on the panic log line, got %q", field, logged)
		}
	}
}
