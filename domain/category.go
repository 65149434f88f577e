package domain

import "github.com/google/uuid"

// Category is a flat tag attached to servers. Names are unique since
// they act as a filter key in the listing engine.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}
