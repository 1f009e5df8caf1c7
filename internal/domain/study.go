package domain

import "time"

// Flashcard is a generated front/back study card.
type Flashcard struct {
	ID        string    `json:"id"         db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Front     string    `json:"front"      db:"front"`
	Back      string    `json:"back"       db:"back"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// QuizQuestion is a generated multiple-choice question. CorrectAnswer is the
// 0-based index into Options.
type QuizQuestion struct {
	ID            string    `json:"id"             db:"id"`
	SessionID     string    `json:"session_id"     db:"session_id"`
	Question      string    `json:"question"       db:"question"`
	Options       []string  `json:"options"        db:"options"`
	CorrectAnswer int       `json:"correct_answer" db:"correct_answer"`
	Explanation   string    `json:"explanation"    db:"explanation"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
}
