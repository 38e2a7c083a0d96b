// internal/generation/client/client_test.go
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contentgen-engine/internal/common/errors"
	"contentgen-engine/internal/common/logger"
	"contentgen-engine/internal/generation/builder"
	"contentgen-engine/internal/generation/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generationServer fakes the backend: a scripted submit body plus a sequence
// of status bodies replayed in order (the last one repeats).
type generationServer struct {
	t *testing.T

	mu            sync.Mutex
	submitStatus  int
	submitBodies  []string
	submitCount   int32
	statusBodies  []string
	statusCount   int32
	statusDelay   time.Duration
	inFlight      int32
	maxInFlight   int32
	lastStatusURL string

	server *httptest.Server
}

func newGenerationServer(t *testing.T) *generationServer {
	gs := &generationServer{t: t, submitStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", gs.handleSubmit)
	mux.HandleFunc("GET /generate/status/", gs.handleStatus)
	gs.server = httptest.NewServer(mux)
	t.Cleanup(gs.server.Close)
	return gs
}

func (gs *generationServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&gs.submitCount, 1)

	gs.mu.Lock()
	status := gs.submitStatus
	idx := int(n) - 1
	if idx >= len(gs.submitBodies) {
		idx = len(gs.submitBodies) - 1
	}
	body := gs.submitBodies[idx]
	gs.mu.Unlock()

	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (gs *generationServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	cur := atomic.AddInt32(&gs.inFlight, 1)
	defer atomic.AddInt32(&gs.inFlight, -1)
	for {
		max := atomic.LoadInt32(&gs.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&gs.maxInFlight, max, cur) {
			break
		}
	}

	gs.mu.Lock()
	delay := gs.statusDelay
	gs.lastStatusURL = r.URL.Path
	gs.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	n := atomic.AddInt32(&gs.statusCount, 1)
	gs.mu.Lock()
	idx := int(n) - 1
	if idx >= len(gs.statusBodies) {
		idx = len(gs.statusBodies) - 1
	}
	body := gs.statusBodies[idx]
	gs.mu.Unlock()

	w.Write([]byte(body))
}

func newTestClient(t *testing.T, gs *generationServer) *Client {
	t.Helper()
	cfg := &Config{
		BaseURL:       gs.server.URL,
		SubmitTimeout: 5 * time.Second,
		PollInterval:  10 * time.Millisecond,
		PollTimeout:   5 * time.Second,
		MaxRetries:    2,
	}
	return NewClient(cfg, logger.NewTestLogger(t), nil)
}

func testRequest() *builder.GenerationRequest {
	return &builder.GenerationRequest{
		CorrelationID: "test-correlation",
		TemplateID:    "blog_article_generator",
		StyleID:       "content_marketing",
		Parameters:    map[string]interface{}{"topic": "edge caching"},
	}
}

func TestClient_Submit_InlineContent(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"content":"the article","metadata":{"words":800}}`}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())

	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, "the article", snap.Content)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, progress.LabelComplete, snap.CurrentStep)
	assert.Nil(t, snap.Err)
	// Inline completion never touches the status endpoint.
	assert.Equal(t, int32(0), atomic.LoadInt32(&gs.statusCount))
}

func TestClient_Submit_AsyncLifecycle(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-42"}`}
	gs.statusBodies = []string{
		`{"data":{"status":"queued"}}`,
		`{"data":{"status":"running","progress":40,"current_agent":"writer"}}`,
		`{"data":{"status":"completed","content":"done body","metadata":{"words":812}}}`,
	}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())
	require.Equal(t, StatePolling, snap.State)
	assert.Equal(t, "job-42", snap.JobID)

	// The running update surfaces the writer step before completion.
	assert.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.State == StateCompleted || s.CurrentStep == progress.LabelWriting
	}, 2*time.Second, 5*time.Millisecond)

	final := c.Wait(context.Background())
	assert.Equal(t, StateCompleted, final.State)
	assert.Equal(t, "done body", final.Content)
	assert.Equal(t, 1.0, final.Progress)
	assert.Nil(t, final.Err)

	gs.mu.Lock()
	assert.Equal(t, "/generate/status/job-42", gs.lastStatusURL)
	gs.mu.Unlock()
}

func TestClient_Submit_JobIDFallbackChain(t *testing.T) {
	tests := []struct {
		name       string
		submitBody string
		expectedID string
	}{
		{
			name:       "request_id preferred",
			submitBody: `{"success":true,"request_id":"a","generation_id":"b","data":{"request_id":"c"}}`,
			expectedID: "a",
		},
		{
			name:       "generation_id next",
			submitBody: `{"success":true,"generation_id":"b","data":{"request_id":"c"}}`,
			expectedID: "b",
		},
		{
			name:       "nested data.request_id last",
			submitBody: `{"success":true,"data":{"request_id":"c"}}`,
			expectedID: "c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newGenerationServer(t)
			gs.submitBodies = []string{tt.submitBody}
			gs.statusBodies = []string{`{"data":{"status":"completed","content":"x"}}`}

			c := newTestClient(t, gs)
			snap := c.Submit(context.Background(), testRequest())
			assert.Equal(t, tt.expectedID, snap.JobID)

			final := c.Wait(context.Background())
			assert.Equal(t, StateCompleted, final.State)
		})
	}
}

func TestClient_Submit_NoJobID(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true}`}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())

	assert.Equal(t, StateFailed, snap.State)
	require.NotNil(t, snap.Err)
	assert.Equal(t, errors.ErrCodeNoJobID, snap.Err.Code)
	// Nothing to poll when the id is missing.
	assert.Equal(t, int32(0), atomic.LoadInt32(&gs.statusCount))
}

func TestClient_Submit_Rejected(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":false,"errors":["topic too vague","style unknown"]}`}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())

	assert.Equal(t, StateFailed, snap.State)
	require.NotNil(t, snap.Err)
	assert.Equal(t, errors.ErrCodeGenerationFailed, snap.Err.Code)
	assert.Contains(t, snap.Err.Details, "topic too vague")
	assert.Contains(t, snap.Err.Details, "style unknown")
}

func TestClient_Submit_RetriesServerErrors(t *testing.T) {
	var attempts int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success":true,"content":"recovered"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(&Config{
		BaseURL:       server.URL,
		SubmitTimeout: 5 * time.Second,
		PollInterval:  10 * time.Millisecond,
		PollTimeout:   5 * time.Second,
		MaxRetries:    2,
	}, logger.NewTestLogger(t), nil)

	snap := c.Submit(context.Background(), testRequest())
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, "recovered", snap.Content)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestClient_Submit_ClientErrorNotRetried(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitStatus = http.StatusBadRequest
	gs.submitBodies = []string{`bad request`}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())

	assert.Equal(t, StateFailed, snap.State)
	require.NotNil(t, snap.Err)
	assert.Equal(t, errors.ErrCodeTransportError, snap.Err.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gs.submitCount))
}

func TestClient_Submit_ClientErrorWithRejectionBody(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitStatus = http.StatusUnprocessableEntity
	gs.submitBodies = []string{`{"success":false,"error":"unknown template"}`}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())

	// A well-formed rejection body is a backend verdict, not a transport fault.
	assert.Equal(t, StateFailed, snap.State)
	require.NotNil(t, snap.Err)
	assert.Equal(t, errors.ErrCodeGenerationFailed, snap.Err.Code)
	assert.Contains(t, snap.Err.Details, "unknown template")
	assert.Equal(t, int32(1), atomic.LoadInt32(&gs.submitCount))
}

func TestClient_Poll_JobFailure(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-9"}`}
	gs.statusBodies = []string{
		`{"data":{"status":"running","progress":0.3}}`,
		`{"data":{"status":"failed","error":"model overloaded"}}`,
	}

	c := newTestClient(t, gs)
	c.Submit(context.Background(), testRequest())
	final := c.Wait(context.Background())

	assert.Equal(t, StateFailed, final.State)
	require.NotNil(t, final.Err)
	assert.Equal(t, errors.ErrCodeGenerationFailed, final.Err.Code)
	assert.Contains(t, final.Err.Details, "model overloaded")
}

func TestClient_Poll_Timeout(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-slow"}`}
	gs.statusBodies = []string{`{"data":{"status":"running","progress":0.5}}`}

	cfg := &Config{
		BaseURL:       gs.server.URL,
		SubmitTimeout: 5 * time.Second,
		PollInterval:  10 * time.Millisecond,
		PollTimeout:   60 * time.Millisecond,
		MaxRetries:    0,
	}
	c := NewClient(cfg, logger.NewTestLogger(t), nil)

	c.Submit(context.Background(), testRequest())
	final := c.Wait(context.Background())

	// Exceeding the local budget is TimedOut, never Failed: the job may still
	// finish server-side.
	assert.Equal(t, StateTimedOut, final.State)
	require.NotNil(t, final.Err)
	assert.Equal(t, errors.ErrCodeGenerationTimeout, final.Err.Code)
}

func TestClient_Poll_UnrecognizedStatus(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-odd"}`}
	gs.statusBodies = []string{`{"data":{"status":"hibernating"}}`}

	c := newTestClient(t, gs)
	c.Submit(context.Background(), testRequest())
	final := c.Wait(context.Background())

	assert.Equal(t, StateFailed, final.State)
	require.NotNil(t, final.Err)
	assert.Equal(t, errors.ErrCodeTransportError, final.Err.Code)
	assert.Contains(t, final.Err.Details, "hibernating")
}

func TestClient_Cancel(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-c"}`}
	gs.statusBodies = []string{`{"data":{"status":"running","progress":0.2}}`}

	c := newTestClient(t, gs)
	c.Submit(context.Background(), testRequest())

	c.Cancel()

	snap := c.Snapshot()
	assert.Equal(t, StateCancelled, snap.State)
	require.NotNil(t, snap.Err)
	assert.Equal(t, errors.ErrCodeGenerationCancelled, snap.Err.Code)

	// Wait returns immediately once cancelled.
	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Second)
	defer cancelCtx()
	assert.Equal(t, StateCancelled, c.Wait(ctx).State)
}

func TestClient_Cancel_BeforeSubmitIsNoOp(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"content":"x"}`}
	c := newTestClient(t, gs)

	c.Cancel()
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestClient_TerminalStatesAreFinal(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"content":"final"}`}

	c := newTestClient(t, gs)
	snap := c.Submit(context.Background(), testRequest())
	require.Equal(t, StateCompleted, snap.State)

	// A cancel after completion changes nothing.
	c.Cancel()
	after := c.Snapshot()
	assert.Equal(t, StateCompleted, after.State)
	assert.Equal(t, "final", after.Content)
	assert.Nil(t, after.Err)

	// Stray late poll results from the settled generation are dropped too.
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.terminate(gen, StateFailed, errors.NewTransportError("poll", assert.AnError))
	assert.Equal(t, StateCompleted, c.Snapshot().State)
}

func TestClient_Resubmit_StartsFreshLifecycle(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":false,"error":"nope"}`}

	c := newTestClient(t, gs)
	first := c.Submit(context.Background(), testRequest())
	require.Equal(t, StateFailed, first.State)

	gs.mu.Lock()
	gs.submitBodies = []string{`{"success":true,"content":"second try"}`}
	gs.mu.Unlock()

	second := c.Submit(context.Background(), testRequest())
	assert.Equal(t, StateCompleted, second.State)
	assert.Equal(t, "second try", second.Content)
	assert.Nil(t, second.Err)
}

func TestClient_Resubmit_SupersedesActivePoller(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-old"}`}
	gs.statusBodies = []string{`{"data":{"status":"running","progress":0.1}}`}

	c := newTestClient(t, gs)
	c.Submit(context.Background(), testRequest())

	gs.mu.Lock()
	gs.submitBodies = []string{`{"success":true,"request_id":"job-new"}`}
	gs.statusBodies = []string{`{"data":{"status":"completed","content":"new job"}}`}
	gs.mu.Unlock()

	snap := c.Submit(context.Background(), testRequest())
	assert.Equal(t, "job-new", snap.JobID)

	final := c.Wait(context.Background())
	assert.Equal(t, StateCompleted, final.State)
	assert.Equal(t, "new job", final.Content)
}

func TestClient_SinglePollInFlight(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-p"}`}
	gs.statusBodies = []string{`{"data":{"status":"running","progress":0.5}}`}
	gs.statusDelay = 30 * time.Millisecond // longer than the poll interval

	c := newTestClient(t, gs)
	c.Submit(context.Background(), testRequest())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&gs.statusCount) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	c.Cancel()

	// Slow polls never overlap: the next one is scheduled only after the
	// previous one resolved.
	assert.Equal(t, int32(1), atomic.LoadInt32(&gs.maxInFlight))
}

func TestClient_ProgressNormalization(t *testing.T) {
	gs := newGenerationServer(t)
	gs.submitBodies = []string{`{"success":true,"request_id":"job-n"}`}
	gs.statusBodies = []string{
		`{"data":{"status":"running","progress":65,"current_agent":"writer"}}`,
		`{"data":{"status":"completed","content":"x"}}`,
	}

	c := newTestClient(t, gs)
	c.Submit(context.Background(), testRequest())

	// Percentage-style progress lands as a fraction.
	assert.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.State == StateCompleted || s.Progress == 0.65
	}, 2*time.Second, 2*time.Millisecond)

	c.Wait(context.Background())
}

func TestSnapshot_JSONShape(t *testing.T) {
	snap := Snapshot{
		State:       StatePolling,
		JobID:       "job-1",
		Progress:    0.4,
		CurrentStep: progress.LabelWriting,
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"polling","jobId":"job-1","progress":0.4,"currentStep":"Writing…"}`, string(data))
}
