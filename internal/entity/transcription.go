package entity

import (
	"time"

	"github.com/google/uuid"
)

// Transcription is a post-show voice memo turned into text.
type Transcription struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	FileName  string    `json:"file_name,omitempty"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary,omitempty"`
	// Questions are follow-up prompts for the reviewer, generated from Text.
	Questions []string  `json:"questions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
