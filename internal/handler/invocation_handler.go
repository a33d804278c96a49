package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// InvocationHandler handles invocation ledger endpoints.
type InvocationHandler struct {
	ledger port.InvocationReader
}

// NewInvocationHandler creates a new invocation handler.
func NewInvocationHandler(ledger port.InvocationReader) *InvocationHandler {
	return &InvocationHandler{ledger: ledger}
}

// Register sets up invocation routes.
func (h *InvocationHandler) Register(router fiber.Router) {
	router.Get("/invocations", h.List)
}

// List returns recent invocations, optionally for one session.
func (h *InvocationHandler) List(c fiber.Ctx) error {
	limitStr := c.Query("limit", "100")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
	}
	sessionID := c.Query("session_id", "")

	logs, err := h.ledger.ListInvocations(c.Context(), limit, sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"invocations": logs,
		"count":       len(logs),
	})
}
