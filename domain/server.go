package domain

import (
	"time"

	"github.com/google/uuid"
)

// Server is a community grouping channels and members, not a network host.
// The owner is implicitly a member and cannot be removed through the
// membership-leave operation.
type Server struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"owner_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member is one identity's membership record on a server.
type Member struct {
	IdentityID string    `json:"identity_id"`
	JoinedAt   time.Time `json:"joined_at"`
}
