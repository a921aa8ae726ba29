package message

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SpeakerSystem is the speaker label of messages posted by the game itself.
const SpeakerSystem = "System"

// Message is one transcript entry. Values are never mutated once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	SpeakerID string    `json:"speaker_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Speaker returns the label used when rendering the message in a transcript.
func (m Message) Speaker() string {
	if m.SpeakerID != "" {
		return m.SpeakerID
	}
	if m.Role == RoleUser {
		return "User"
	}
	return "Assistant"
}

// Clone returns a copy of msgs that shares no backing array with it.
func Clone(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
