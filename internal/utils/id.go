package utils

import "github.com/google/uuid"

// NewID returns a random connection handle.
func NewID() string {
	return uuid.NewString()
}
