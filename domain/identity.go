// Package domain contains the core entities of the chat platform.
// No storage, network, or UI logic should be added here.
package domain

// Identity is the reference to an externally managed account.
// The platform consumes it, it never creates one.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
