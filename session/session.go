// Package session stores per-session conversation history.
package session

import (
	"context"
	"time"
)

// Turn is one recorded conversation message. Turns are immutable once
// appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Store is the conversation-history collaborator. History returns the
// retained suffix oldest-first.
type Store interface {
	Append(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string, lastN int) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
}
