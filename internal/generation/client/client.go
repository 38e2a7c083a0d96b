// internal/generation/client/client.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contentgen-engine/internal/common/errors"
	commonhttp "contentgen-engine/internal/common/http"
	"contentgen-engine/internal/common/logger"
	"contentgen-engine/internal/common/metrics"
	"contentgen-engine/internal/common/observability"
	"contentgen-engine/internal/generation/builder"
	"contentgen-engine/internal/generation/progress"
)

// Client owns one generation job lifecycle at a time: it submits the request,
// polls the status endpoint and settles in exactly one terminal state. Every
// submission starts a fresh lifecycle; stray responses from an earlier
// lifecycle are ignored via a generation counter.
type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
	obs    *observability.Observability

	mu        sync.Mutex
	gen       uint64
	state     State
	jobID     string
	progress  float64
	step      string
	content   string
	metadata  map[string]interface{}
	err       *errors.StandardError
	cancel    context.CancelFunc
	startedAt time.Time
	done      chan struct{}
}

// NewClient creates a job client. obs may be nil.
func NewClient(config *Config, log logger.Logger, obs *observability.Observability) *Client {
	httpClient := commonhttp.NewClient(config.SubmitTimeout)
	if config.APIKey != "" {
		httpClient.WithHeader("Authorization", "Bearer "+config.APIKey)
	}

	return &Client{
		config: config,
		http:   httpClient,
		logger: log.WithFields(map[string]interface{}{"component": "generation-client"}),
		obs:    obs,
		state:  StateIdle,
	}
}

// Snapshot returns the caller-facing view of the machine.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:       c.state,
		JobID:       c.jobID,
		Progress:    c.progress,
		CurrentStep: c.step,
		Content:     c.content,
		Metadata:    c.metadata,
		Err:         c.err,
	}
}

// Submit starts a fresh lifecycle for req and returns once the submit phase
// has resolved: Completed (inline content), Polling (background poller
// started) or Failed. If a previous lifecycle is still polling it is
// cancelled first, so at most one poller is ever active per client.
func (c *Client) Submit(ctx context.Context, req *builder.GenerationRequest) Snapshot {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil && !c.state.Terminal() {
		// Abandoning a live lifecycle; release its waiters.
		close(c.done)
	}
	c.gen++
	gen := c.gen
	pollCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateSubmitting
	c.jobID = ""
	c.progress = 0
	c.step = ""
	c.content = ""
	c.metadata = nil
	c.err = nil
	c.startedAt = time.Now()
	c.done = make(chan struct{})
	deadline := c.startedAt.Add(c.config.PollTimeout)
	c.mu.Unlock()

	c.logger.Info("submitting generation request", map[string]interface{}{
		"correlationId": req.CorrelationID,
		"templateId":    req.TemplateID,
		"styleId":       req.StyleID,
	})

	resp, stdErr := c.submitWithRetry(ctx, req)
	if stdErr != nil {
		metrics.GenerationSubmissions.WithLabelValues("transport_error").Inc()
		c.terminate(gen, StateFailed, stdErr)
		return c.Snapshot()
	}

	if !resp.Success {
		metrics.GenerationSubmissions.WithLabelValues("rejected").Inc()
		c.terminate(gen, StateFailed, errors.NewGenerationFailedError(failureMessages(resp.Error, resp.Errors)...))
		return c.Snapshot()
	}

	// Some submissions return content synchronously; no job to poll.
	if resp.Content != "" {
		metrics.GenerationSubmissions.WithLabelValues("inline").Inc()
		c.complete(gen, resp.Content, resp.Metadata)
		return c.Snapshot()
	}

	jobID := extractJobID(resp)
	if jobID == "" {
		metrics.GenerationSubmissions.WithLabelValues("no_job_id").Inc()
		c.terminate(gen, StateFailed, errors.NewNoJobIDError())
		return c.Snapshot()
	}

	c.mu.Lock()
	if c.gen != gen || c.state != StateSubmitting {
		// Cancelled while the submit call was in flight.
		c.mu.Unlock()
		return c.Snapshot()
	}
	c.state = StatePolling
	c.jobID = jobID
	c.mu.Unlock()

	metrics.GenerationSubmissions.WithLabelValues("accepted").Inc()
	c.logger.Info("generation job accepted", map[string]interface{}{
		"jobId": jobID,
	})

	go c.pollLoop(pollCtx, gen, jobID, deadline)
	return c.Snapshot()
}

// Cancel stops the local poller and settles in Cancelled. It does not abort
// work already dispatched to the backend; cancellation is "stop observing",
// not "stop the job". A no-op once terminal or before any submission.
func (c *Client) Cancel() {
	c.mu.Lock()
	if c.state == StateIdle || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = StateCancelled
	c.err = errors.NewGenerationCancelledError()
	cancel, done, started := c.cancel, c.done, c.startedAt
	c.mu.Unlock()

	c.finish(StateCancelled, cancel, done, started)
}

// Wait blocks until the current lifecycle reaches a terminal state or ctx is
// done, then returns the latest snapshot.
func (c *Client) Wait(ctx context.Context) Snapshot {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-ctx.Done():
		case <-done:
		}
	}
	return c.Snapshot()
}

// submitWithRetry POSTs the request with a small number of automatic retries
// and exponential backoff. Client-error responses (4xx) are not retried.
func (c *Client) submitWithRetry(ctx context.Context, req *builder.GenerationRequest) (*submitResponse, *errors.StandardError) {
	url := c.config.BaseURL + "/generate"
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errors.NewTransportError("submit", ctx.Err())
			}
		}

		body, status, err := c.http.PostJSON(ctx, url, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.NewTransportError("submit", ctx.Err())
			}
			lastErr = err
			continue
		}

		if status >= http.StatusBadRequest {
			// A well-formed rejection body beats a bare status code.
			var resp submitResponse
			if jsonErr := json.Unmarshal(body, &resp); jsonErr == nil && !resp.Success &&
				(resp.Error != "" || len(resp.Errors) > 0) {
				return &resp, nil
			}

			lastErr = fmt.Errorf("submit returned status %d", status)
			if status < http.StatusInternalServerError {
				return nil, errors.NewTransportError("submit", lastErr)
			}
			continue
		}

		var resp submitResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			lastErr = fmt.Errorf("decode submit response: %w", err)
			continue
		}
		return &resp, nil
	}

	return nil, errors.NewTransportError("submit", lastErr)
}

// pollLoop drives the Polling state. The next poll is scheduled only after
// the previous one resolved, so there is never more than one in flight, and
// the timer is stopped on every exit path.
func (c *Client) pollLoop(ctx context.Context, gen uint64, jobID string, deadline time.Time) {
	timer := time.NewTimer(c.config.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if time.Now().After(deadline) {
			c.terminate(gen, StateTimedOut, errors.NewGenerationTimeoutError(c.config.PollTimeout))
			return
		}

		if c.pollOnce(ctx, gen, jobID) {
			return
		}

		timer.Reset(c.config.PollInterval)
	}
}

// pollOnce issues one status poll and applies it. Returns true when the
// lifecycle is settled and polling must stop.
func (c *Client) pollOnce(ctx context.Context, gen uint64, jobID string) bool {
	metrics.GenerationPolls.Inc()
	if c.obs != nil {
		c.obs.RecordPoll(ctx)
	}

	url := fmt.Sprintf("%s/generate/status/%s", c.config.BaseURL, jobID)
	body, status, err := c.http.GetJSON(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		c.terminate(gen, StateFailed, errors.NewTransportError("poll", err))
		return true
	}
	if status != http.StatusOK {
		c.terminate(gen, StateFailed, errors.NewTransportError("poll", fmt.Errorf("status %d", status)))
		return true
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.terminate(gen, StateFailed, errors.NewTransportError("poll", fmt.Errorf("decode status response: %w", err)))
		return true
	}

	return c.applyStatus(gen, &resp.Data)
}

// applyStatus translates one poll response into a state transition.
func (c *Client) applyStatus(gen uint64, data *statusData) bool {
	switch data.Status {
	case "queued", "pending", "running":
		c.mu.Lock()
		if c.gen == gen && c.state == StatePolling {
			if data.Progress != nil {
				c.progress = progress.Normalize(*data.Progress)
			}
			c.step = progress.Present(data.CurrentAgent, c.progress)
		}
		c.mu.Unlock()
		return false

	case "completed":
		c.complete(gen, data.Content, data.Metadata)
		return true

	case "failed":
		c.terminate(gen, StateFailed, errors.NewGenerationFailedError(failureMessages(data.Error, data.Errors)...))
		return true

	default:
		c.terminate(gen, StateFailed, errors.NewTransportError("poll", fmt.Errorf("unrecognized status %q", data.Status)))
		return true
	}
}

// complete settles the lifecycle in Completed with the generated content.
func (c *Client) complete(gen uint64, content string, metadata map[string]interface{}) {
	c.mu.Lock()
	if c.gen != gen || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = StateCompleted
	c.content = content
	c.metadata = metadata
	c.progress = 1
	c.step = progress.LabelComplete
	cancel, done, started := c.cancel, c.done, c.startedAt
	c.mu.Unlock()

	c.finish(StateCompleted, cancel, done, started)
}

// terminate settles the lifecycle in an error-carrying terminal state.
// Ignored when the lifecycle is already terminal or belongs to another
// generation, which is what makes terminal states final.
func (c *Client) terminate(gen uint64, state State, stdErr *errors.StandardError) {
	c.mu.Lock()
	if c.gen != gen || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.err = stdErr
	cancel, done, started := c.cancel, c.done, c.startedAt
	c.mu.Unlock()

	c.logger.Warn("generation job terminated", map[string]interface{}{
		"state": string(state),
		"code":  string(stdErr.Code),
		"error": stdErr.Details,
	})

	c.finish(state, cancel, done, started)
}

// finish releases the poller and records terminal metrics.
func (c *Client) finish(state State, cancel context.CancelFunc, done chan struct{}, started time.Time) {
	if cancel != nil {
		cancel()
	}
	if done != nil {
		close(done)
	}

	elapsed := time.Since(started)
	metrics.GenerationJobsTerminal.WithLabelValues(string(state)).Inc()
	metrics.GenerationJobDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
	if c.obs != nil {
		ctx := context.Background()
		c.obs.RecordJobTerminal(ctx, string(state))
		c.obs.RecordJobDuration(ctx, elapsed, string(state))
	}
}
