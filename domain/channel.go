package domain

import "github.com/google/uuid"

// Channel is a named sub-topic within a server. It is owned by exactly
// one server and disappears with it.
type Channel struct {
	ID       uuid.UUID `json:"id"`
	ServerID uuid.UUID `json:"server_id"`
	Name     string    `json:"name"`
	Topic    string    `json:"topic"`
}
