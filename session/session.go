package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tags mark synthetic messages so later processing can recognize them.
const (
	// TagContext marks messages injected from project context files.
	TagContext = "context"
	// TagSummary marks messages that replace a summarized span of history.
	TagSummary = "summary"
)

// Part types for multi-part message payloads.
const (
	PartText  = "text"
	PartImage = "image"
)

// Image detail hints, following the vision API convention.
const (
	DetailLow  = "low"
	DetailHigh = "high"
)

// Part is one element of a multi-part message payload.
type Part struct {
	Type string `json:"type"` // "text" or "image"
	Text string `json:"text,omitempty"`
	// URL or data reference for image parts.
	ImageURL string `json:"image_url,omitempty"`
	// Detail is the resolution hint for image parts: "low", "high", or
	// empty when unspecified.
	Detail string `json:"detail,omitempty"`
}

// Message is a single entry in a conversation history. The payload is
// either plain Content or a sequence of typed Parts; when Parts is
// non-empty it takes precedence. Messages are immutable once created:
// history rewrites always build a new slice rather than editing entries.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
	Tag     string `json:"tag,omitempty"`
}

// Text returns the textual payload of the message: Content for plain
// messages, the concatenated text parts otherwise.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// Session holds a named conversation history persisted as a JSON file.
type Session struct {
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
	path     string
}

// Save writes the current session state to disk.
func (s *Session) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// AddMessage appends a message to the session history.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

func sessionPath(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create session directory: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.json", name)), nil
}
