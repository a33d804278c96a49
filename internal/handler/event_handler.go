package handler

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// SessionEvents is what the event handler drives.
type SessionEvents interface {
	Dispatch(ctx context.Context, env domain.Envelope) domain.Result
	HandleSessionStarted(ctx context.Context, detail json.RawMessage) domain.Result
	HandleLogDelivered(ctx context.Context, detail json.RawMessage) domain.Result
}

// EventHandler receives trigger events over HTTP. With a job tracker,
// requests carrying ?async=true are answered with 202 and run in the
// background.
type EventHandler struct {
	events SessionEvents
	jobs   *JobTracker
}

// NewEventHandler creates a new event handler. jobs may be nil.
func NewEventHandler(events SessionEvents, jobs *JobTracker) *EventHandler {
	return &EventHandler{events: events, jobs: jobs}
}

// Register sets up event routes.
func (h *EventHandler) Register(router fiber.Router) {
	router.Post("/events", h.Dispatch)
	events := router.Group("/events")
	events.Post("/session-started", h.SessionStarted)
	events.Post("/log-delivered", h.LogDelivered)
}

// Dispatch accepts an EventBridge envelope and routes on its detail-type.
func (h *EventHandler) Dispatch(c fiber.Ctx) error {
	var env domain.Envelope
	if err := json.Unmarshal(c.Body(), &env); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event envelope"})
	}
	return h.run(c, "dispatch", func(ctx context.Context) domain.Result {
		return h.events.Dispatch(ctx, env)
	})
}

// SessionStarted accepts a session-start envelope or its bare detail.
func (h *EventHandler) SessionStarted(c fiber.Ctx) error {
	detail := domain.DetailOf(bytes.Clone(c.Body()))
	return h.run(c, domain.TriggerSessionStarted, func(ctx context.Context) domain.Result {
		return h.events.HandleSessionStarted(ctx, detail)
	})
}

// LogDelivered accepts a log-delivered envelope or its bare detail.
func (h *EventHandler) LogDelivered(c fiber.Ctx) error {
	detail := domain.DetailOf(bytes.Clone(c.Body()))
	return h.run(c, domain.TriggerLogDelivered, func(ctx context.Context) domain.Result {
		return h.events.HandleLogDelivered(ctx, detail)
	})
}

// run invokes fn inline, or as a background job when asked to and a
// tracker is configured. The request body is not valid once the handler
// returns, so fn must only use copies of it.
func (h *EventHandler) run(c fiber.Ctx, trigger string, fn func(ctx context.Context) domain.Result) error {
	if h.jobs != nil && c.Query("async") == "true" {
		job := h.jobs.Start(trigger, fn)
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
	res := fn(c.Context())
	return c.Status(res.Code).JSON(res)
}
