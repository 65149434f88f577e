package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is an uploaded file shared by reference across messages.
// Its lifetime is governed by the count of referencing messages, not by
// a single owning message.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	FilePath    string    `json:"file_path"`
	ContentType string    `json:"content_type,omitempty"`
	SenderID    string    `json:"sender_id"`
	CreatedAt   time.Time `json:"created_at"`
}
