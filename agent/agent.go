package agent

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/awein/winnow/command"
	"github.com/awein/winnow/compact"
	"github.com/awein/winnow/config"
	"github.com/awein/winnow/llm"
	"github.com/awein/winnow/session"
)

// Agent holds the wired-together pieces of one dialog: the session, the
// model client, the compaction engine and the command registry. All
// collaborators are injected once at construction and shared with the
// command handlers; nothing is rebuilt per turn.
type Agent struct {
	Config   *config.Config
	Manager  *session.Manager
	Session  *session.Session
	Client   llm.Client
	Engine   *compact.Engine
	Commands *command.Registry
}

func New(cfg *config.Config, mgr *session.Manager, sess *session.Session, client llm.Client, engine *compact.Engine, commands *command.Registry) *Agent {
	return &Agent{
		Config:   cfg,
		Manager:  mgr,
		Session:  sess,
		Client:   client,
		Engine:   engine,
		Commands: commands,
	}
}

// Run drives the interactive dialog loop until the user quits or input
// ends.
func (a *Agent) Run(ctx context.Context, initialPrompt string) error {
	if initialPrompt != "" {
		if _, err := a.HandleInput(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		done, err := a.HandleInput(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

// HandleInput processes one line of user input. Lines starting with "/"
// are dispatched through the command registry; everything else becomes a
// conversation turn. done reports that the session should end.
func (a *Agent) HandleInput(ctx context.Context, input string) (done bool, err error) {
	if !strings.HasPrefix(input, "/") {
		return false, a.processTurn(ctx, input)
	}

	name, args := splitCommand(input)
	res := a.Commands.Dispatch(ctx, name, command.Context{
		SessionID: a.Session.Name,
		Args:      args,
	})
	switch res.Kind {
	case command.KindPrompt:
		return false, a.processTurn(ctx, res.Text)
	case command.KindClose:
		return true, nil
	case command.KindExecuted:
		if res.Text != "" {
			fmt.Println(res.Text)
		}
		return false, nil
	case command.KindError:
		fmt.Printf("Error: %s\n", res.Text)
		return false, nil
	default:
		return false, fmt.Errorf("unhandled command result kind %d", res.Kind)
	}
}

// processTurn sends one user message to the model, records the exchange,
// and runs the automatic compaction check.
func (a *Agent) processTurn(ctx context.Context, input string) error {
	a.Session.AddMessage(session.Message{Role: session.RoleUser, Content: input})

	response, err := a.Client.Chat(ctx, a.Session.Messages)
	if err != nil {
		return fmt.Errorf("LLM chat failed: %w", err)
	}
	a.Session.AddMessage(*response)
	fmt.Printf("Winnow: %s\n", response.Content)

	// Compaction failure must not kill the turn; the next turn simply
	// runs against the uncompacted history.
	out, err := a.Engine.CompactIfDue(ctx, a.Session.Messages, false)
	if err != nil {
		fmt.Printf("Warning: compaction failed: %v\n", err)
	} else if out.DidCompact {
		a.Session.Messages = out.Result
		fmt.Printf("(history compacted: %d -> %d messages, ~%d -> ~%d tokens)\n",
			out.BeforeCount, out.AfterCount, out.BeforeTokens, out.AfterTokens)
	}

	if err := a.Session.Save(); err != nil {
		fmt.Printf("Warning: failed to save session: %v\n", err)
	}
	return nil
}

// splitCommand separates "/name rest of args" into its parts.
func splitCommand(input string) (name, args string) {
	input = strings.TrimPrefix(input, "/")
	parts := strings.SplitN(input, " ", 2)
	name = parts[0]
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return name, args
}
