package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat event. The timestamp is assigned at
// creation and is non-decreasing within a conversation's insertion order.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Sender         Identity    `json:"sender"`
	Content        string      `json:"content"`
	Lang           string      `json:"lang,omitempty"`
	AttachmentIDs  []uuid.UUID `json:"attachment_ids,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
