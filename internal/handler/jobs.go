package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// Job states.
const (
	JobRunning  = "running"
	JobComplete = "complete"
	JobError    = "error"
)

// jobRetention is how long finished jobs stay queryable.
const jobRetention = time.Hour

// JobStatus represents the current state of an asynchronous invocation.
type JobStatus struct {
	ID          string         `json:"id"`
	Trigger     string         `json:"trigger"`
	Status      string         `json:"status"` // running, complete, error
	Result      *domain.Result `json:"result,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at,omitempty"`
}

func (j JobStatus) done() bool {
	return j.Status == JobComplete || j.Status == JobError
}

// JobTracker runs invocations in the background and keeps their outcome in
// memory.
type JobTracker struct {
	timeout time.Duration

	mu   sync.RWMutex
	jobs map[string]*JobStatus
	subs map[string][]chan JobStatus // subscribers per job
	wg   sync.WaitGroup
}

// NewJobTracker creates a tracker whose jobs are cancelled after timeout.
func NewJobTracker(timeout time.Duration) *JobTracker {
	return &JobTracker{
		timeout: timeout,
		jobs:    make(map[string]*JobStatus),
		subs:    make(map[string][]chan JobStatus),
	}
}

// Start registers a job and runs fn in the background. fn gets a context
// detached from the request that triggered it.
func (t *JobTracker) Start(trigger string, fn func(ctx context.Context) domain.Result) JobStatus {
	id := uuid.NewString()

	t.mu.Lock()
	t.prune(time.Now())
	job := &JobStatus{ID: id, Trigger: trigger, Status: JobRunning, StartedAt: time.Now()}
	t.jobs[id] = job
	snapshot := *job
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.finish(id, fn(ctx))
	}()
	return snapshot
}

// Wait blocks until every started job has finished.
func (t *JobTracker) Wait() {
	t.wg.Wait()
}

// finish stores res and notifies subscribers.
func (t *JobTracker) finish(id string, res domain.Result) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	job.Result = &res
	job.Status = JobComplete
	if !res.OK() {
		job.Status = JobError
	}
	job.CompletedAt = time.Now()
	snapshot := *job
	subs := t.subs[id]
	t.mu.Unlock()

	slog.Info("job finished", "job_id", id, "trigger", job.Trigger, "status", snapshot.Status, "session_id", res.SessionID)

	// Notify subscribers
	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// prune drops finished jobs older than the retention window. Callers hold mu.
func (t *JobTracker) prune(now time.Time) {
	for id, job := range t.jobs {
		if job.done() && now.Sub(job.CompletedAt) > jobRetention && len(t.subs[id]) == 0 {
			delete(t.jobs, id)
			delete(t.subs, id)
		}
	}
}

// GetJob returns a job status.
func (t *JobTracker) GetJob(id string) (*JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Subscribe returns a channel that receives the job's final status, and the
// status at the time of subscribing.
func (t *JobTracker) Subscribe(id string) (chan JobStatus, JobStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, JobStatus{}, false
	}
	ch := make(chan JobStatus, 1)
	t.subs[id] = append(t.subs[id], ch)
	return ch, *job, true
}

// Unsubscribe removes a channel from subscribers.
func (t *JobTracker) Unsubscribe(id string, ch chan JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[id]
	for i, s := range subs {
		if s == ch {
			t.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(ch)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	tracker *JobTracker
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(tracker *JobTracker) *JobsHandler {
	return &JobsHandler{tracker: tracker}
}

// Register sets up job routes.
func (h *JobsHandler) Register(router fiber.Router) {
	jobs := router.Group("/jobs")
	jobs.Get("/:id", h.GetStatus)
	jobs.Get("/:id/stream", h.StreamSSE)
}

// GetStatus returns the current job status.
func (h *JobsHandler) GetStatus(c fiber.Ctx) error {
	job, ok := h.tracker.GetJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(job)
}

// StreamSSE streams the job's status via Server-Sent Events until it finishes.
func (h *JobsHandler) StreamSSE(c fiber.Ctx) error {
	id := c.Params("id")

	ch, job, ok := h.tracker.Subscribe(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// If already finished, just return the final status
	if job.done() {
		h.tracker.Unsubscribe(id, ch)
		data, _ := json.Marshal(job)
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", job.Status, string(data)))
	}

	timeout := h.tracker.timeout
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.tracker.Unsubscribe(id, ch)

		// Send initial status
		data, _ := json.Marshal(job)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", JobRunning, string(data))
		w.Flush()

		select {
		case update := <-ch:
			data, _ := json.Marshal(update)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Status, string(data))
			w.Flush()
		case <-time.After(timeout):
			slog.Warn("SSE timeout", "job_id", id)
		}
	})
}
