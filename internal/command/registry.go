// Package command implements the explicit command registration table the
// gateway dispatches slash commands through.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/core"
	"github.com/vovakirdan/wiregate/internal/store"
)

// Command is a constructed, ready-to-run command.
type Command interface {
	Execute(ctx context.Context) error
}

// Factory builds a command for the issuing session and its arguments. It may
// reject the arguments by returning an error.
type Factory func(sess *core.Session, args []string) (Command, error)

// Spec describes one registered command.
type Spec struct {
	Name    string
	Usage   string
	Summary string
	New     Factory
}

// Func adapts a plain function to Command.
type Func func(ctx context.Context) error

// Execute calls f.
func (f Func) Execute(ctx context.Context) error { return f(ctx) }

// Registry maps command names to specs. It is built once at startup and
// read-only afterwards.
type Registry struct {
	commands map[string]Spec
	store    store.CommandLogStore
	log      *zerolog.Logger
}

// ErrDuplicate is returned when two specs share a name.
var ErrDuplicate = errors.New("duplicate command")

// NewRegistry builds a registry from specs. Names are matched case-insensitively.
// st may be nil to disable the audit log.
func NewRegistry(st store.CommandLogStore, logger *zerolog.Logger, specs ...Spec) (*Registry, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Registry{
		commands: make(map[string]Spec, len(specs)),
		store:    st,
		log:      logger,
	}
	for _, spec := range specs {
		name := strings.ToLower(strings.TrimSpace(spec.Name))
		if name == "" || spec.New == nil {
			return nil, fmt.Errorf("command %q: name and factory are required", spec.Name)
		}
		if _, exists := r.commands[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
		spec.Name = name
		r.commands[name] = spec
	}
	return r, nil
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	spec, ok := r.commands[strings.ToLower(name)]
	return spec, ok
}

// Specs returns every registered spec ordered by name.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.commands))
	for _, spec := range r.commands {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch resolves, constructs and executes inv. Failures, panics included,
// are reported in the outcome instead of propagating.
func (r *Registry) Dispatch(ctx context.Context, inv core.Invocation) core.Outcome {
	spec, ok := r.Lookup(inv.Name)
	if !ok {
		return core.Outcome{}
	}

	out := core.Outcome{Found: true, Usage: spec.Usage}
	out.Err = r.run(ctx, spec, inv)
	r.audit(ctx, inv, out.Err)
	return out
}

func (r *Registry) run(ctx context.Context, spec Spec, inv core.Invocation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("command", spec.Name).Interface("panic", p).Msg("command panicked")
			err = fmt.Errorf("internal error: %v", p)
		}
	}()

	cmd, err := spec.New(inv.Session, inv.Args)
	if err != nil {
		return err
	}
	if cmd == nil {
		return errors.New("command could not be created")
	}
	return cmd.Execute(ctx)
}

func (r *Registry) audit(ctx context.Context, inv core.Invocation, execErr error) {
	if r.store == nil || inv.Session == nil {
		return
	}
	rec := &store.CommandRecord{
		AccountID: inv.Session.AccountID,
		Command:   inv.Name,
		Args:      inv.Args,
		OK:        execErr == nil,
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	if err := r.store.RecordCommand(ctx, rec); err != nil {
		r.log.Warn().Err(err).Str("command", inv.Name).Msg("failed to record command")
	}
}
