package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/service"
)

// FlashcardsHandler handles flashcard generation and retrieval.
type FlashcardsHandler struct {
	study    *service.StudyService
	sessions port.SessionStore
	store    port.StudyStore
}

// NewFlashcardsHandler creates a new flashcards handler.
func NewFlashcardsHandler(study *service.StudyService, sessions port.SessionStore, store port.StudyStore) *FlashcardsHandler {
	return &FlashcardsHandler{study: study, sessions: sessions, store: store}
}

// Register sets up flashcard routes.
func (h *FlashcardsHandler) Register(router fiber.Router) {
	router.Post("/generate-flashcards", h.Generate)
	router.Get("/flashcards/:sessionId", h.Get)
}

// Generate creates flashcards for a processed session.
func (h *FlashcardsHandler) Generate(c fiber.Ctx) error {
	var body struct {
		SessionID string `json:"session_id"`
		Count     int    `json:"count"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Count == 0 {
		body.Count = 12
	}

	session, err := h.sessions.GetSession(c.Context(), body.SessionID)
	if errors.Is(err, port.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	cards, err := h.study.GenerateFlashcards(c.Context(), session.ID, session.RawText, body.Count)
	if errors.Is(err, port.ErrEmptyCompletion) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "AI returned no flashcards, try again"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate flashcards: " + err.Error()})
	}

	return c.JSON(fiber.Map{
		"session_id":    session.ID,
		"session_title": session.Title,
		"flashcards":    cards,
		"count":         len(cards),
	})
}

// Get returns previously generated flashcards for a session.
func (h *FlashcardsHandler) Get(c fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	if _, err := h.sessions.GetSession(c.Context(), sessionID); err != nil {
		if errors.Is(err, port.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	cards, err := h.store.GetFlashcards(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if cards == nil {
		cards = []domain.Flashcard{}
	}

	return c.JSON(fiber.Map{"session_id": sessionID, "flashcards": cards, "count": len(cards)})
}
