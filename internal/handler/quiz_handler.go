package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/service"
)

// QuizHandler handles quiz generation, retrieval, and answer evaluation.
type QuizHandler struct {
	study    *service.StudyService
	sessions port.SessionStore
	store    port.StudyStore
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(study *service.StudyService, sessions port.SessionStore, store port.StudyStore) *QuizHandler {
	return &QuizHandler{study: study, sessions: sessions, store: store}
}

// Register sets up quiz routes.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("/generate-quiz", h.Generate)
	router.Post("/quiz/evaluate", h.Evaluate)
	router.Get("/quiz/:sessionId", h.Get)
}

// quizQuestionView is a question as exposed to the client: the correct
// answer stays server-side and is only revealed on evaluation.
type quizQuestionView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Generate creates quiz questions for a processed session.
func (h *QuizHandler) Generate(c fiber.Ctx) error {
	var body struct {
		SessionID string `json:"session_id"`
		Count     int    `json:"count"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Count == 0 {
		body.Count = 8
	}

	session, err := h.sessions.GetSession(c.Context(), body.SessionID)
	if errors.Is(err, port.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	questions, err := h.study.GenerateQuiz(c.Context(), session.ID, session.RawText, body.Count)
	if errors.Is(err, port.ErrEmptyCompletion) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "AI returned no questions, try again"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate quiz: " + err.Error()})
	}

	views := make([]quizQuestionView, len(questions))
	for i, q := range questions {
		views[i] = quizQuestionView{ID: q.ID, Question: q.Question, Options: q.Options}
	}

	return c.JSON(fiber.Map{
		"session_id":    session.ID,
		"session_title": session.Title,
		"questions":     views,
		"count":         len(views),
	})
}

// Get returns a previously generated quiz for a session, without answers.
func (h *QuizHandler) Get(c fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	if _, err := h.sessions.GetSession(c.Context(), sessionID); err != nil {
		if errors.Is(err, port.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	questions, err := h.store.GetQuizQuestions(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	views := make([]quizQuestionView, len(questions))
	for i, q := range questions {
		views[i] = quizQuestionView{ID: q.ID, Question: q.Question, Options: q.Options}
	}

	return c.JSON(fiber.Map{"session_id": sessionID, "questions": views})
}

// Evaluate checks a single answer and returns feedback with the explanation.
func (h *QuizHandler) Evaluate(c fiber.Ctx) error {
	var body struct {
		SessionID      string `json:"session_id"`
		QuestionID     string `json:"question_id"`
		SelectedAnswer int    `json:"selected_answer"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	question, correct, err := h.study.EvaluateAnswer(c.Context(), body.SessionID, body.QuestionID, body.SelectedAnswer)
	if errors.Is(err, port.ErrQuestionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "question not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"is_correct":      correct,
		"correct_answer":  question.CorrectAnswer,
		"explanation":     question.Explanation,
		"selected_answer": body.SelectedAnswer,
	})
}
