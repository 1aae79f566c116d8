package command

import (
	"context"
	"fmt"

	"github.com/awein/winnow/compact"
)

// NewCompactCommand returns the "compact" command: a forced full
// rewrite of the session history through the engine, regardless of
// occupancy. Success is a bare acknowledgement; statistics are logged by
// the engine rather than returned here.
func NewCompactCommand(eng *compact.Engine, store compact.Store) Command {
	return Delegate("compact", func(ctx context.Context, c Context) Result {
		if err := eng.Rewrite(ctx, store, c.SessionID); err != nil {
			return Errorf("compact failed: %v", err)
		}
		return Executed("conversation history compacted")
	})
}

// NewStatusCommand returns the "status" command: a read-only occupancy
// report for the session.
func NewStatusCommand(eng *compact.Engine, store compact.Store) Command {
	return Delegate("status", func(ctx context.Context, c Context) Result {
		msgs, err := store.GetMessages(c.SessionID)
		if err != nil {
			return Errorf("status failed: %v", err)
		}
		st := eng.Status(msgs)
		note := fmt.Sprintf("%d messages, ~%d of %d tokens (%.1f%% of budget)",
			st.Messages, st.Tokens, st.Budget, st.Occupancy*100)
		if st.Due {
			note += " - compaction recommended"
		}
		return Executed(note)
	})
}

// NewQuitCommand returns the "quit" command, ending the dialog session.
func NewQuitCommand() Command {
	return Delegate("quit", func(ctx context.Context, c Context) Result {
		return Close()
	})
}
