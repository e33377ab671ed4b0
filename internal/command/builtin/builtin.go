// Package builtin holds the operator commands every gateway ships with.
package builtin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/wiregate/internal/command"
	"github.com/vovakirdan/wiregate/internal/core"
)

const maxHistory = 50

// Specs returns the built-in command specs. list must return every
// registered spec at call time; help uses it.
func Specs(list func() []command.Spec) []command.Spec {
	return []command.Spec{
		{
			Name:    "help",
			Usage:   "/help [command]",
			Summary: "List commands or show the usage of one",
			New:     newHelp(list),
		},
		{
			Name:    "whoami",
			Usage:   "/whoami",
			Summary: "Show your account id and channel",
			New:     newWhoami,
		},
		{
			Name:    "members",
			Usage:   "/members [channel]",
			Summary: "List the members of a channel",
			New:     newMembers,
		},
		{
			Name:    "history",
			Usage:   "/history [count]",
			Summary: "Show your most recent commands",
			New:     newHistory,
		},
	}
}

func newHelp(list func() []command.Spec) command.Factory {
	return func(sess *core.Session, args []string) (command.Command, error) {
		if len(args) > 1 {
			return nil, errors.New("too many arguments")
		}
		return command.Func(func(context.Context) error {
			specs := list()
			if len(args) == 1 {
				name := strings.ToLower(strings.TrimLeft(args[0], "/"))
				for _, spec := range specs {
					if spec.Name == name {
						return sess.Send(fmt.Sprintf("%s - %s", spec.Usage, spec.Summary))
					}
				}
				return fmt.Errorf("unknown command %s", name)
			}

			for _, spec := range specs {
				if err := sess.Send(fmt.Sprintf("%s - %s", spec.Usage, spec.Summary)); err != nil {
					return err
				}
			}
			return nil
		}), nil
	}
}

func newWhoami(sess *core.Session, args []string) (command.Command, error) {
	if len(args) > 0 {
		return nil, errors.New("whoami takes no arguments")
	}
	return command.Func(func(context.Context) error {
		channel := sess.Channel()
		if channel == "" {
			channel = "(none)"
		}
		return sess.Send(fmt.Sprintf("Account %d, channel %s", sess.AccountID, channel))
	}), nil
}

func newMembers(sess *core.Session, args []string) (command.Command, error) {
	if len(args) > 1 {
		return nil, errors.New("too many arguments")
	}
	channel := sess.Channel()
	if len(args) == 1 {
		channel = args[0]
	}
	if channel == "" {
		return nil, errors.New("not in a channel")
	}
	if sess.Channels == nil {
		return nil, errors.New("channel table unavailable")
	}

	return command.Func(func(context.Context) error {
		ch, ok := sess.Channels.Get(channel)
		if !ok {
			return fmt.Errorf("channel %s does not exist", channel)
		}
		members := ch.Members()
		ids := make([]string, 0, len(members))
		for _, id := range members {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		return sess.Send(fmt.Sprintf("Members of %s (%d): %s", channel, len(ids), strings.Join(ids, ", ")))
	}), nil
}

func newHistory(sess *core.Session, args []string) (command.Command, error) {
	if sess.Store == nil {
		return nil, errors.New("history is unavailable")
	}

	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > maxHistory {
			return nil, fmt.Errorf("invalid count %q, expected 1-%d", args[0], maxHistory)
		}
		limit = n
	}

	return command.Func(func(ctx context.Context) error {
		records, err := sess.Store.ListCommands(ctx, sess.AccountID, limit)
		if err != nil {
			return fmt.Errorf("list commands: %w", err)
		}
		if len(records) == 0 {
			return sess.Send("No commands yet")
		}
		for _, rec := range records {
			line := strings.TrimSpace(fmt.Sprintf("%s %s %s",
				rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Command, strings.Join(rec.Args, " ")))
			if !rec.OK {
				line += " (failed: " + rec.Error + ")"
			}
			if err := sess.Send(line); err != nil {
				return err
			}
		}
		return nil
	}), nil
}
