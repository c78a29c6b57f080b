package models

// Role of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Hidden marks tool traffic kept for the model but not shown to staff
	Hidden bool `json:"hidden,omitempty"`
}

// History is the append-only transcript of one chat session
type History struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// NewHistory starts a transcript with the system instruction
func NewHistory(sessionID, systemPrompt string) History {
	h := History{SessionID: sessionID}
	if systemPrompt != "" {
		h.Messages = []Message{{Role: RoleSystem, Content: systemPrompt}}
	}
	return h
}

// Append returns a copy of the history with msgs added. The receiver is not modified.
func (h History) Append(msgs ...Message) History {
	out := History{SessionID: h.SessionID}
	out.Messages = make([]Message, 0, len(h.Messages)+len(msgs))
	out.Messages = append(out.Messages, h.Messages...)
	out.Messages = append(out.Messages, msgs...)
	return out
}

// Visible returns the messages shown to staff (system and tool traffic hidden)
func (h History) Visible() []Message {
	out := make([]Message, 0, len(h.Messages))
	for _, m := range h.Messages {
		if m.Role != RoleSystem && !m.Hidden {
			out = append(out, m)
		}
	}
	return out
}
