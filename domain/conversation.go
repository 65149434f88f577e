package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the ordered message thread bound to a channel context.
// ChannelRef is an opaque key, not a strict foreign key: a conversation
// is created lazily on first use of a reference.
type Conversation struct {
	ID         uuid.UUID `json:"id"`
	ChannelRef string    `json:"channel_ref"`
	CreatedAt  time.Time `json:"created_at"`
}
