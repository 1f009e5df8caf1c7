package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/service"
)

// ChatHandler handles RAG-grounded chat with SSE streaming.
type ChatHandler struct {
	rag      *service.RAGService
	sessions port.SessionStore
	chat     port.ChatStore
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(rag *service.RAGService, sessions port.SessionStore, chat port.ChatStore) *ChatHandler {
	return &ChatHandler{rag: rag, sessions: sessions, chat: chat}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
	router.Get("/chat/history/:sessionId", h.History)
}

// sseEvent writes one SSE data frame and flushes it to the client.
func sseEvent(w *bufio.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

// Chat streams a grounded answer as SSE events ({"type":"chunk"|"done"|"error"}).
// The user turn is persisted before generation; the assistant turn is
// persisted only after the stream completes successfully, so a mid-stream
// failure or client disconnect leaves the user turn recorded alone.
//
// Concurrent chats on the same session are not serialized; simultaneous
// requests may interleave their persisted turns in either order.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if _, err := h.sessions.GetSession(c.Context(), body.SessionID); err != nil {
		if errors.Is(err, port.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	userMessage := strings.TrimSpace(body.Message)
	if userMessage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message cannot be empty"})
	}

	if _, err := h.chat.SaveChatMessage(c.Context(), body.SessionID, domain.RoleUser, userMessage); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	streamCtx, cancel := context.WithCancel(c.Context())
	stream, err := h.rag.Respond(streamCtx, body.SessionID, userMessage)
	if err != nil {
		cancel()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	sessionID := body.SessionID

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		// Cancelling stops the provider stream when the client goes away
		// or the response fails mid-flight.
		defer cancel()

		var full strings.Builder
		for delta := range stream {
			if delta.Err != nil {
				slog.Error("generation failed mid-stream", "session_id", sessionID, "error", delta.Err)
				_ = sseEvent(w, fiber.Map{"type": "error", "message": delta.Err.Error()})
				return
			}
			full.WriteString(delta.Content)
			if err := sseEvent(w, fiber.Map{"type": "chunk", "content": delta.Content}); err != nil {
				// Client disconnected; stop pulling and do not persist a
				// partial assistant turn.
				return
			}
		}

		// The request context ends with the response; persist on a fresh one.
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		if _, err := h.chat.SaveChatMessage(saveCtx, sessionID, domain.RoleAssistant, full.String()); err != nil {
			slog.Error("failed to persist assistant turn", "session_id", sessionID, "error", err)
			_ = sseEvent(w, fiber.Map{"type": "error", "message": "failed to save response"})
			return
		}

		_ = sseEvent(w, fiber.Map{"type": "done"})
	})
}

// History returns the most recent chat turns in chronological order.
func (h *ChatHandler) History(c fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	if _, err := h.sessions.GetSession(c.Context(), sessionID); err != nil {
		if errors.Is(err, port.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	messages, err := h.chat.GetChatHistory(c.Context(), sessionID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	return c.JSON(fiber.Map{"session_id": sessionID, "messages": messages})
}
