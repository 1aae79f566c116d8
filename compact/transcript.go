package compact

import (
	"fmt"
	"strings"

	"github.com/awein/winnow/session"
)

// Transcript renders a message sequence as role-labeled text suitable
// for handing to the summarization delegate. Image parts are replaced
// with a short placeholder since the delegate only sees text.
func Transcript(msgs []session.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleLabel(m.Role))
		b.WriteString(":\n")
		b.WriteString(messageText(m))
	}
	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case session.RoleAssistant:
		return "Assistant"
	case session.RoleSystem:
		return "System"
	case session.RoleTool:
		return "Tool"
	default:
		return "User"
	}
}

func messageText(m session.Message) string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var b strings.Builder
	for _, p := range m.Parts {
		switch p.Type {
		case session.PartText:
			b.WriteString(p.Text)
		case session.PartImage:
			fmt.Fprintf(&b, "[image: %s]", p.ImageURL)
		}
	}
	return b.String()
}
