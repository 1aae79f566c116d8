package compact

import "github.com/awein/winnow/session"

// Partition splits a history into the span that must be preserved
// verbatim and the span eligible for summarization. Concatenating
// LeadingSystem, Middle and Tail in order reconstructs the original
// history exactly; no message is duplicated, dropped or reordered.
type Partition struct {
	// LeadingSystem is the maximal prefix of consecutive system-role
	// messages. May be empty.
	LeadingSystem []session.Message

	// Middle is the summarizable region between prefix and tail. May be
	// empty, in which case compaction has nothing to do.
	Middle []session.Message

	// Tail is the last retainTail messages of the non-system suffix,
	// never summarized.
	Tail []session.Message
}

// PartitionHistory applies the partition policy: collect the leading
// system prefix, reserve the last retainTail remaining messages as the
// tail, and leave whatever sits between as the middle. If the suffix is
// no longer than retainTail the whole suffix becomes the tail.
func PartitionHistory(history []session.Message, retainTail int) Partition {
	split := 0
	for split < len(history) && history[split].Role == session.RoleSystem {
		split++
	}
	suffix := history[split:]

	p := Partition{LeadingSystem: history[:split]}
	if len(suffix) <= retainTail {
		p.Tail = suffix
		return p
	}
	cut := len(suffix) - retainTail
	p.Middle = suffix[:cut]
	p.Tail = suffix[cut:]
	return p
}
