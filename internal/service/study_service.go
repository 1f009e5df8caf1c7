package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

// sampleWordLimit bounds how much source text is handed to the model for
// one-shot generation, to stay within the completion context window.
const sampleWordLimit = 6000

const flashcardPrompt = `You are an expert educator. Generate exactly %d high-quality flashcards from the following content.

Rules:
- Each flashcard should test a KEY concept, term, or fact from the content
- Front: concise question or term (max 20 words)
- Back: clear, complete answer (max 60 words)
- Vary question types: definitions, explanations, comparisons, examples
- Do NOT include trivial or redundant cards

Return ONLY a valid JSON array with this exact structure:
[
  {"front": "Question or term here", "back": "Answer or definition here"},
  ...
]

Content:
%s`

const quizPrompt = `You are an expert quiz creator. Generate exactly %d multiple-choice questions from the following content.

Rules:
- Each question should test understanding of an important concept
- Provide exactly 4 answer options (A, B, C, D)
- Only one option is correct
- Wrong options should be plausible but clearly incorrect to someone who knows the material
- Include a brief explanation for why the correct answer is right
- correct_answer is the 0-based index (0=A, 1=B, 2=C, 3=D)

Return ONLY a valid JSON object with this structure:
{
  "questions": [
    {
      "question": "Question text here?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": 0,
      "explanation": "Brief explanation of why this is correct"
    }
  ]
}

Content:
%s`

// StudyService drives one-shot generation of flashcards and quizzes from a
// session's full source text.
type StudyService struct {
	completer port.Completer
	store     port.StudyStore
}

// NewStudyService creates a study-material generation service.
func NewStudyService(completer port.Completer, store port.StudyStore) *StudyService {
	return &StudyService{completer: completer, store: store}
}

// GenerateFlashcards generates, filters, and persists flashcards for a
// session. count is clamped to [10, 15]. Malformed items in the model output
// are silently dropped; generation only fails if nothing usable remains.
func (s *StudyService) GenerateFlashcards(ctx context.Context, sessionID, rawText string, count int) ([]domain.Flashcard, error) {
	count = clamp(count, 10, 15)

	prompt := fmt.Sprintf(flashcardPrompt, count, sampleText(rawText))
	raw, err := s.completer.Chat(ctx, []port.Message{{Role: domain.RoleUser, Content: prompt}}, port.ChatOptions{
		Temperature: 0.3,
		MaxTokens:   3000,
		JSONFormat:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}

	cards := parseFlashcards(raw)
	if len(cards) == 0 {
		return nil, port.ErrEmptyCompletion
	}
	if len(cards) > count {
		cards = cards[:count]
	}
	slog.Info("flashcards generated", "session_id", sessionID, "count", len(cards))

	return s.store.SaveFlashcards(ctx, sessionID, cards)
}

// GenerateQuiz generates, filters, and persists multiple-choice questions for
// a session. count is clamped to [5, 10]. Items without exactly four options
// or with an out-of-range answer index are silently dropped.
func (s *StudyService) GenerateQuiz(ctx context.Context, sessionID, rawText string, count int) ([]domain.QuizQuestion, error) {
	count = clamp(count, 5, 10)

	prompt := fmt.Sprintf(quizPrompt, count, sampleText(rawText))
	raw, err := s.completer.Chat(ctx, []port.Message{{Role: domain.RoleUser, Content: prompt}}, port.ChatOptions{
		Temperature: 0.3,
		MaxTokens:   3000,
		JSONFormat:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions := parseQuizQuestions(raw)
	if len(questions) == 0 {
		return nil, port.ErrEmptyCompletion
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	slog.Info("quiz generated", "session_id", sessionID, "count", len(questions))

	return s.store.SaveQuizQuestions(ctx, sessionID, questions)
}

// EvaluateAnswer checks a selected option against a stored question and
// returns the question plus whether the selection was correct.
func (s *StudyService) EvaluateAnswer(ctx context.Context, sessionID, questionID string, selected int) (*domain.QuizQuestion, bool, error) {
	questions, err := s.store.GetQuizQuestions(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load quiz: %w", err)
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], selected == questions[i].CorrectAnswer, nil
		}
	}
	return nil, false, port.ErrQuestionNotFound
}

// parseFlashcards accepts the model output as either a bare JSON array or an
// object wrapping one ({"flashcards": [...]}, {"cards": [...]}, or any single
// array-valued key). Items missing front or back are dropped.
func parseFlashcards(raw string) []domain.Flashcard {
	items := extractArray(raw, "flashcards", "cards")

	var cards []domain.Flashcard
	for _, item := range items {
		var card struct {
			Front string `json:"front"`
			Back  string `json:"back"`
		}
		if err := json.Unmarshal(item, &card); err != nil {
			continue
		}
		if card.Front == "" || card.Back == "" {
			continue
		}
		cards = append(cards, domain.Flashcard{Front: card.Front, Back: card.Back})
	}
	return cards
}

// parseQuizQuestions accepts {"questions": [...]} or a bare array and keeps
// only well-formed items: exactly four options and an answer index in range.
func parseQuizQuestions(raw string) []domain.QuizQuestion {
	items := extractArray(raw, "questions")

	var questions []domain.QuizQuestion
	for _, item := range items {
		var q struct {
			Question      string   `json:"question"`
			Options       []string `json:"options"`
			CorrectAnswer int      `json:"correct_answer"`
			Explanation   string   `json:"explanation"`
		}
		if err := json.Unmarshal(item, &q); err != nil {
			continue
		}
		if q.Question == "" || len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			continue
		}
		questions = append(questions, domain.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return questions
}

// extractArray unwraps model output into a list of items, tolerating both a
// top-level array and an object with the array under one of preferredKeys
// (falling back to the first array-valued key).
func extractArray(raw string, preferredKeys ...string) []json.RawMessage {
	raw = strings.TrimSpace(raw)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil
	}
	for _, key := range preferredKeys {
		if v, ok := wrapper[key]; ok {
			if err := json.Unmarshal(v, &items); err == nil {
				return items
			}
		}
	}
	for _, v := range wrapper {
		if err := json.Unmarshal(v, &items); err == nil {
			return items
		}
	}
	return nil
}

func sampleText(text string) string {
	words := strings.Fields(text)
	if len(words) > sampleWordLimit {
		words = words[:sampleWordLimit]
	}
	return strings.Join(words, " ")
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
