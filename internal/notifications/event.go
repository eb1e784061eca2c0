// Package notifications delivers realtime post events to websocket clients, to other
// instances through Redis pub/sub, and to downstream consumers through NATS.
package notifications

import (
	"encoding/json"
	"fmt"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated         = "post_created"
	EventPostUpdated         = "post_updated"
	EventPostReactionUpdated = "post_reaction_updated"
	EventCommentCreated      = "comment_created"
	EventPostDeleted         = "post_deleted"
	// EventPostActivity is sent only to a post's author when someone else comments.
	EventPostActivity        = "post_activity"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode returns the JSON wire form of e.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(b), nil
}
