// Package slack provides the messaging gateway: the interface the lifecycle
// logic talks to, and an HTTP client implementation against the Slack Web API.
package slack

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a message, thread or user cannot be resolved.
var ErrNotFound = errors.New("slack: not found")

// ThreadRef anchors a conversation thread: the channel and the timestamp of
// the thread's parent message.
type ThreadRef struct {
	ChannelID string
	ThreadTS  string
}

// MessageRef identifies a posted message.
type MessageRef struct {
	ChannelID string
	TS        string
}

// Message is a message as read back from the transport.
type Message struct {
	User      string
	Text      string
	TS        string
	Reactions []string
}

// HasReaction reports whether the message already carries the given marker.
func (m Message) HasReaction(name string) bool {
	for _, r := range m.Reactions {
		if r == name {
			return true
		}
	}
	return false
}

// Gateway is the messaging transport consumed by the orchestrator, the
// webhook module and the idle sweep.
type Gateway interface {
	// PostMessage posts a top-level message to a channel.
	PostMessage(ctx context.Context, channelID, text string) (MessageRef, error)

	// PostInThread posts a reply into the thread anchored at ref.
	PostInThread(ctx context.Context, ref ThreadRef, text string) (MessageRef, error)

	// AddMarker adds an emoji reaction to the thread's parent message.
	// Adding a marker that is already present is not an error.
	AddMarker(ctx context.Context, ref ThreadRef, marker string) error

	// GetParentMessage fetches the parent message of a thread.
	// Returns ErrNotFound when the message cannot be resolved.
	GetParentMessage(ctx context.Context, ref ThreadRef) (Message, error)

	// GetThreadMessages returns all messages of a thread in order.
	GetThreadMessages(ctx context.Context, ref ThreadRef) ([]Message, error)

	// ResolveUserDisplayName resolves a user ID to a display name.
	ResolveUserDisplayName(ctx context.Context, userID string) (string, error)

	// CreatePrivateSpace creates a private channel and returns its ID.
	CreatePrivateSpace(ctx context.Context, name string) (string, error)

	// Invite adds a user (or user group handle) to a channel.
	Invite(ctx context.Context, channelID, userID string) error

	// SendDirectMessage delivers a direct message to a user.
	SendDirectMessage(ctx context.Context, userID, text string) error
}
