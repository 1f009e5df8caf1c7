package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/domain"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/port"
)

func TestGenerateFlashcardsFiltersMalformedItems(t *testing.T) {
	// One valid card, one missing the back, one that isn't an object.
	completer := &fakeCompleter{chatResponse: `[
		{"front": "What is RAG?", "back": "Retrieval-augmented generation."},
		{"front": "Incomplete"},
		"not a card"
	]`}
	store := &fakeStudyStore{}
	svc := NewStudyService(completer, store)

	cards, err := svc.GenerateFlashcards(context.Background(), "s1", "some long source text", 12)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "What is RAG?", cards[0].Front)
	assert.Equal(t, "s1", cards[0].SessionID)
	assert.True(t, completer.gotOpts.JSONFormat)
}

func TestGenerateFlashcardsAcceptsWrapperObject(t *testing.T) {
	completer := &fakeCompleter{chatResponse: `{"flashcards": [
		{"front": "a", "back": "b"},
		{"front": "c", "back": "d"}
	]}`}
	svc := NewStudyService(completer, &fakeStudyStore{})

	cards, err := svc.GenerateFlashcards(context.Background(), "s1", "text", 12)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestGenerateFlashcardsErrorsWhenNothingUsable(t *testing.T) {
	completer := &fakeCompleter{chatResponse: `{"flashcards": [{"front": ""}]}`}
	svc := NewStudyService(completer, &fakeStudyStore{})

	_, err := svc.GenerateFlashcards(context.Background(), "s1", "text", 12)
	assert.ErrorIs(t, err, port.ErrEmptyCompletion)
}

func TestGenerateQuizFiltersInvalidQuestions(t *testing.T) {
	completer := &fakeCompleter{chatResponse: `{"questions": [
		{"question": "Pick one?", "options": ["a","b","c","d"], "correct_answer": 2, "explanation": "because"},
		{"question": "Three options", "options": ["a","b","c"], "correct_answer": 0},
		{"question": "Bad index", "options": ["a","b","c","d"], "correct_answer": 4}
	]}`}
	store := &fakeStudyStore{}
	svc := NewStudyService(completer, store)

	questions, err := svc.GenerateQuiz(context.Background(), "s1", "text", 8)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Pick one?", questions[0].Question)
	assert.Equal(t, 2, questions[0].CorrectAnswer)
}

func TestGenerateQuizClampsCount(t *testing.T) {
	// 12 valid questions returned, requested 200: clamp to at most 10.
	raw := `{"questions": [`
	for i := 0; i < 12; i++ {
		if i > 0 {
			raw += ","
		}
		raw += `{"question": "q?", "options": ["a","b","c","d"], "correct_answer": 0}`
	}
	raw += `]}`

	svc := NewStudyService(&fakeCompleter{chatResponse: raw}, &fakeStudyStore{})
	questions, err := svc.GenerateQuiz(context.Background(), "s1", "text", 200)
	require.NoError(t, err)
	assert.Len(t, questions, 10)
}

func TestEvaluateAnswer(t *testing.T) {
	store := &fakeStudyStore{questions: []domain.QuizQuestion{
		{ID: "q1", SessionID: "s1", Question: "Pick one?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2, Explanation: "because"},
	}}
	svc := NewStudyService(&fakeCompleter{}, store)

	question, correct, err := svc.EvaluateAnswer(context.Background(), "s1", "q1", 2)
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, "because", question.Explanation)

	_, correct, err = svc.EvaluateAnswer(context.Background(), "s1", "q1", 0)
	require.NoError(t, err)
	assert.False(t, correct)

	_, _, err = svc.EvaluateAnswer(context.Background(), "s1", "missing", 0)
	assert.ErrorIs(t, err, port.ErrQuestionNotFound)
}

func TestSampleTextBoundsPromptSize(t *testing.T) {
	long := genWords(7000)
	assert.Len(t, strings.Fields(sampleText(long)), sampleWordLimit)
}
