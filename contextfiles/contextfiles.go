// Package contextfiles injects project context into a conversation.
//
// Files matching the configured glob patterns (doublestar syntax, so
// patterns like "docs/**/*.md" work) are read once at session start and
// turned into context-tagged user messages. The tag matters: the forced
// compaction path preserves context messages verbatim instead of
// summarizing them away.
package contextfiles

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/awein/winnow/errors"
	"github.com/awein/winnow/session"
)

// Load reads every file matching patterns relative to root and returns
// one context-tagged message per file, in deterministic path order.
func Load(root string, patterns []string) ([]session.Message, error) {
	fsys := os.DirFS(root)

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad context pattern %q", pattern)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)

	var msgs []session.Message
	for _, path := range paths {
		info, err := fs.Stat(fsys, path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not stat context file %s", path)
		}
		if info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read context file %s", path)
		}
		msgs = append(msgs, session.Message{
			Role:    session.RoleUser,
			Content: fmt.Sprintf("Project context from %s:\n\n%s", path, data),
			Tag:     session.TagContext,
		})
	}
	return msgs, nil
}

// Inject prepends context messages to a session that does not already
// carry any, directly after the leading system prefix so the partition
// policy keeps treating the prefix as preserved.
func Inject(s *session.Session, msgs []session.Message) {
	if len(msgs) == 0 {
		return
	}
	for _, m := range s.Messages {
		if m.Tag == session.TagContext {
			return
		}
	}
	split := 0
	for split < len(s.Messages) && s.Messages[split].Role == session.RoleSystem {
		split++
	}
	combined := make([]session.Message, 0, len(s.Messages)+len(msgs))
	combined = append(combined, s.Messages[:split]...)
	combined = append(combined, msgs...)
	combined = append(combined, s.Messages[split:]...)
	s.Messages = combined
}
