package handler

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/source"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/service"
)

// maxPDFSize bounds uploaded PDF files.
const maxPDFSize = 20 * 1024 * 1024 // 20 MB

// SessionHandler handles document ingestion and session listing.
type SessionHandler struct {
	ingest   *service.IngestService
	sessions port.SessionStore
	youtube  *source.YouTubeSource
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(ingest *service.IngestService, sessions port.SessionStore, youtube *source.YouTubeSource) *SessionHandler {
	return &SessionHandler{ingest: ingest, sessions: sessions, youtube: youtube}
}

// Register sets up ingestion and session routes.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/process-video", h.ProcessVideo)
	router.Post("/process-pdf", h.ProcessPDF)
	router.Get("/sessions", h.ListSessions)
	router.Get("/sessions/:id", h.GetSession)
}

// ProcessVideo accepts a YouTube URL, fetches the transcript, and ingests it.
func (h *SessionHandler) ProcessVideo(c fiber.Ctx) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	videoID := source.ExtractVideoID(body.URL)
	if videoID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid YouTube URL, could not extract video ID"})
	}

	transcript, err := h.youtube.FetchTranscript(c.Context(), videoID)
	if err != nil {
		slog.Warn("transcript fetch failed", "video_id", videoID, "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	title := h.youtube.FetchTitle(c.Context(), videoID)

	session, chunkCount, err := h.ingest.Ingest(c.Context(), title, domain.SourceTypeYouTube, body.URL, transcript)
	if errors.Is(err, port.ErrTextTooShort) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "transcript too short to process meaningfully"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"session_id":  session.ID,
		"title":       session.Title,
		"video_id":    videoID,
		"word_count":  session.WordCount,
		"chunk_count": chunkCount,
		"message":     "Video processed successfully. Ready for flashcards, quiz, and chat.",
	})
}

// ProcessPDF accepts a PDF upload, extracts its text, and ingests it.
func (h *SessionHandler) ProcessPDF(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file upload"})
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only PDF files are accepted"})
	}
	if fileHeader.Size > maxPDFSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file too large, maximum size is 20MB"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read upload"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read upload"})
	}

	text, title, err := source.ExtractPDFText(data, fileHeader.Filename)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	session, chunkCount, err := h.ingest.Ingest(c.Context(), title, domain.SourceTypePDF, fileHeader.Filename, text)
	if errors.Is(err, port.ErrTextTooShort) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "PDF contains too little text to process"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"session_id":  session.ID,
		"title":       session.Title,
		"filename":    fileHeader.Filename,
		"word_count":  session.WordCount,
		"chunk_count": chunkCount,
		"message":     "PDF processed successfully. Ready for flashcards, quiz, and chat.",
	})
}

// ListSessions returns all processed sessions, newest first.
func (h *SessionHandler) ListSessions(c fiber.Ctx) error {
	sessions, err := h.sessions.ListSessions(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// GetSession returns one session by ID.
func (h *SessionHandler) GetSession(c fiber.Ctx) error {
	session, err := h.sessions.GetSession(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(session)
}
