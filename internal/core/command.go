package core

import (
	"context"
	"strings"
)

// Invocation is a single command request extracted from chat text.
type Invocation struct {
	Name    string
	Args    []string
	Session *Session
}

// Outcome is the result of dispatching an invocation.
type Outcome struct {
	// Found is false when no command is registered under the name.
	Found bool
	// Usage is the registered usage hint, set whenever Found is true.
	Usage string
	// Err is the construction or execution failure, nil on success.
	Err error
}

// Dispatcher resolves and runs commands. Dispatch must not panic and must
// return only after the command has finished.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv Invocation) Outcome
}

// ParseCommand splits prefixed chat text into a command name and arguments.
// The name is the first whitespace token with the prefix removed, lower-cased.
// ok is false when text does not start with prefix.
func ParseCommand(prefix, text string) (inv Invocation, ok bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return Invocation{}, false
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Invocation{}, true
	}
	return Invocation{
		Name: strings.ToLower(strings.TrimPrefix(fields[0], prefix)),
		Args: fields[1:],
	}, true
}
