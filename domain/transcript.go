package domain

import (
	"fmt"
	"strings"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleSystem    MessageRole = "system"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Transcript is the ordered conversation captured by the voice session.
type Transcript []Message

func (t Transcript) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: transcript is empty", ErrInvalidTranscript)
	}
	for i, m := range t {
		switch m.Role {
		case RoleUser, RoleSystem, RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidTranscript, i, m.Role)
		}
	}
	return nil
}

// Format renders the transcript as "- role: content" lines for the scorer.
func (t Transcript) Format() string {
	var b strings.Builder
	for _, m := range t {
		fmt.Fprintf(&b, "- %s: %s\n", m.Role, m.Content)
	}
	return b.String()
}
