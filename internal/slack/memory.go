package slack

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Gateway for tests. It records every outbound call
// and serves canned parent messages and threads.
type Memory struct {
	mu sync.Mutex

	// Seeded state
	Parents      map[ThreadRef]Message
	Threads      map[ThreadRef][]Message
	DisplayNames map[string]string

	// Recorded calls
	Posted          []RecordedMessage
	Markers         map[ThreadRef][]string
	CreatedChannels []string
	Invites         map[string][]string
	DirectMessages  map[string][]string

	// Failure injection
	FailPost   bool
	FailCreate bool
	FailInvite map[string]bool
	FailDM     map[string]bool

	seq int
}

// RecordedMessage is a message captured by the fake.
type RecordedMessage struct {
	ChannelID string
	ThreadTS  string
	Text      string
}

func NewMemory() *Memory {
	return &Memory{
		Parents:        make(map[ThreadRef]Message),
		Threads:        make(map[ThreadRef][]Message),
		DisplayNames:   make(map[string]string),
		Markers:        make(map[ThreadRef][]string),
		Invites:        make(map[string][]string),
		DirectMessages: make(map[string][]string),
		FailInvite:     make(map[string]bool),
		FailDM:         make(map[string]bool),
	}
}

// SeedParent registers a parent message for a thread so commands against it
// pass context validation.
func (m *Memory) SeedParent(ref ThreadRef, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.TS == "" {
		msg.TS = ref.ThreadTS
	}
	m.Parents[ref] = msg
}

func (m *Memory) nextTS() string {
	m.seq++
	return fmt.Sprintf("1700000000.%06d", m.seq)
}

func (m *Memory) PostMessage(_ context.Context, channelID, text string) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPost {
		return MessageRef{}, &APIError{Method: "chat.postMessage", Code: "channel_not_found"}
	}

	m.Posted = append(m.Posted, RecordedMessage{ChannelID: channelID, Text: text})
	return MessageRef{ChannelID: channelID, TS: m.nextTS()}, nil
}

func (m *Memory) PostInThread(_ context.Context, ref ThreadRef, text string) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Posted = append(m.Posted, RecordedMessage{ChannelID: ref.ChannelID, ThreadTS: ref.ThreadTS, Text: text})
	return MessageRef{ChannelID: ref.ChannelID, TS: m.nextTS()}, nil
}

func (m *Memory) AddMarker(_ context.Context, ref ThreadRef, marker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Markers[ref] = append(m.Markers[ref], marker)
	return nil
}

func (m *Memory) GetParentMessage(_ context.Context, ref ThreadRef) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.Parents[ref]
	if !ok {
		return Message{}, ErrNotFound
	}
	return msg, nil
}

func (m *Memory) GetThreadMessages(_ context.Context, ref ThreadRef) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Threads[ref], nil
}

func (m *Memory) ResolveUserDisplayName(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name, ok := m.DisplayNames[userID]; ok {
		return name, nil
	}
	return "", ErrNotFound
}

func (m *Memory) CreatePrivateSpace(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate {
		return "", &APIError{Method: "conversations.create", Code: "name_taken"}
	}

	m.CreatedChannels = append(m.CreatedChannels, name)
	return fmt.Sprintf("C-%s", name), nil
}

func (m *Memory) Invite(_ context.Context, channelID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailInvite[userID] {
		return &APIError{Method: "conversations.invite", Code: "user_not_found"}
	}

	m.Invites[channelID] = append(m.Invites[channelID], userID)
	return nil
}

func (m *Memory) SendDirectMessage(_ context.Context, userID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDM[userID] {
		return &APIError{Method: "chat.postMessage", Code: "channel_not_found"}
	}

	m.DirectMessages[userID] = append(m.DirectMessages[userID], text)
	return nil
}

// Compile-time check that Memory implements Gateway.
var _ Gateway = (*Memory)(nil)
