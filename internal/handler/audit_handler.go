package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
)

// AuditHandler exposes the request audit trail.
type AuditHandler struct {
	store *store.PostgresStore
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(pgStore *store.PostgresStore) *AuditHandler {
	return &AuditHandler{store: pgStore}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/audit", h.List)
}

// List returns recent audit log entries, newest first.
func (h *AuditHandler) List(c fiber.Ctx) error {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	logs, err := h.store.ListAuditLogs(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}

	return c.JSON(fiber.Map{"logs": logs, "count": len(logs)})
}
