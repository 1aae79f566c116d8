// Package agent wires the interactive chat loop together.
//
// The Agent type holds one dialog's collaborators: the loaded config, the
// session manager and active session, the LLM client, the compaction
// engine, and the slash-command registry. Everything is injected at
// construction; the package owns no global state.
//
// # Input handling
//
// HandleInput processes one line of user input. Lines beginning with "/"
// are parsed into a command name and argument string and dispatched
// through the command registry; the handler's result decides whether the
// text is forwarded to the model as a prompt, printed locally, or ends
// the session. Any other line becomes a conversation turn: the user
// message is appended to the session, sent to the model, and the
// response recorded and printed.
//
// After every turn the agent runs the automatic compaction check. When
// the history has grown past the configured occupancy threshold, the
// engine folds the middle of the conversation into a summary message and
// the session is updated in place. A failed compaction is reported as a
// warning and the turn continues with the uncompacted history.
//
// # Usage
//
//	a := agent.New(cfg, mgr, sess, client, engine, commands)
//	if err := a.Run(ctx, initialPrompt); err != nil {
//	    // handle error
//	}
package agent
