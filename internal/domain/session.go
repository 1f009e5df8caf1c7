package domain

import "time"

// Session represents one ingested source document (video transcript or PDF)
// and anchors all derived artifacts: chunks, chat history, flashcards, quiz.
type Session struct {
	ID         string    `json:"id"          db:"id"`
	Title      string    `json:"title"       db:"title"`
	SourceType string    `json:"source_type" db:"source_type"` // youtube, pdf
	SourceURL  string    `json:"source_url"  db:"source_url"`
	RawText    string    `json:"-"           db:"raw_text"`
	WordCount  int       `json:"word_count"  db:"word_count"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Source type constants.
const (
	SourceTypeYouTube = "youtube"
	SourceTypePDF     = "pdf"
)
