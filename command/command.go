// Package command implements the slash-command layer of the agent: a
// registry of named commands and the closed result type the dialog loop
// matches on.
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/awein/winnow/errors"
)

// ResultKind tags the closed set of command outcomes. Consumers are
// expected to switch over every kind.
type ResultKind int

const (
	// KindPrompt means Text should be sent to the model as user input.
	KindPrompt ResultKind = iota
	// KindClose ends the dialog session.
	KindClose
	// KindExecuted means the command did its work; Text optionally
	// carries output for the user.
	KindExecuted
	// KindError means the command failed; Text carries the message.
	KindError
)

// Result is the outcome of dispatching one command.
type Result struct {
	Kind ResultKind
	Text string
}

// Prompt builds a result whose text is fed to the model.
func Prompt(text string) Result { return Result{Kind: KindPrompt, Text: text} }

// Close builds a result that ends the session.
func Close() Result { return Result{Kind: KindClose} }

// Executed builds a success acknowledgement, optionally with output.
func Executed(note string) Result { return Result{Kind: KindExecuted, Text: note} }

// Errorf builds a failure result.
func Errorf(format string, a ...any) Result {
	return Result{Kind: KindError, Text: fmt.Sprintf(format, a...)}
}

// Context carries per-invocation command input. An empty SessionID
// addresses the caller's current session.
type Context struct {
	SessionID string
	Args      string
}

// Handler is the function form of a command.
type Handler func(ctx context.Context, c Context) Result

// placeholder substituted with the command arguments in templates.
const placeholder = "{input}"

// Command is a tagged variant: either a prompt template with an {input}
// placeholder, or a delegate function. Exactly one is set, enforced by
// the two constructors.
type Command struct {
	name     string
	template string
	run      Handler
}

// Template defines a command that expands its arguments into a prompt.
func Template(name, text string) Command {
	return Command{name: name, template: text}
}

// Delegate defines a command backed by a function.
func Delegate(name string, run Handler) Command {
	return Command{name: name, run: run}
}

// Name returns the command's registry key.
func (c Command) Name() string { return c.name }

// Registry holds the known commands. One registry instance is built at
// startup and handed to the dialog loop; commands are never registered
// ad hoc mid-session.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command, rejecting duplicates and unnamed commands.
func (r *Registry) Register(cmd Command) error {
	if cmd.name == "" {
		return errors.New("command has no name")
	}
	if _, exists := r.commands[cmd.name]; exists {
		return errors.New("command %q already registered", cmd.name)
	}
	r.commands[cmd.name] = cmd
	return nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch resolves a command by name and executes its variant: a
// template expands to a Prompt result, a delegate runs and returns its
// own result. Unknown names yield an Error result rather than a Go
// error so the dialog loop has a single consumption path.
func (r *Registry) Dispatch(ctx context.Context, name string, c Context) Result {
	cmd, ok := r.commands[name]
	if !ok {
		return Errorf("unknown command %q", name)
	}
	if cmd.run != nil {
		return cmd.run(ctx, c)
	}
	return Prompt(strings.ReplaceAll(cmd.template, placeholder, c.Args))
}
