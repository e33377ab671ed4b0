// Package console reads operator commands from a local stream and runs them
// through the gateway as a permanent operator session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/core"
	"github.com/vovakirdan/wiregate/internal/proto"
)

const (
	// Handle is the registry-independent handle of the operator session.
	Handle = "console"

	defaultChannel = "terminal"
)

// Options configures a Console.
type Options struct {
	// Channel is the operator session's channel, "terminal" by default.
	Channel string
	// SettleDelay is waited after the listener is ready, before the first read.
	SettleDelay time.Duration
}

// Console is the operator front end.
type Console struct {
	gateway *core.Gateway
	in      io.Reader
	out     io.Writer
	ready   <-chan struct{}
	opts    Options
	log     *zerolog.Logger
}

// New builds a console reading from in and writing to out. Run blocks on
// ready before reading anything.
func New(gw *core.Gateway, in io.Reader, out io.Writer, ready <-chan struct{}, opts Options, logger *zerolog.Logger) *Console {
	if opts.Channel == "" {
		opts.Channel = defaultChannel
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{
		gateway: gw,
		in:      in,
		out:     out,
		ready:   ready,
		opts:    opts,
		log:     logger,
	}
}

// Run waits for the listener, then executes every prefixed input line until
// the input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-c.ready:
	}

	if c.opts.SettleDelay > 0 {
		timer := time.NewTimer(c.opts.SettleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}

	sess := c.gateway.NewSession(Handle, 0, newTextSink(c.out))
	sess.SetChannel(c.opts.Channel)
	c.log.Info().Str("channel", c.opts.Channel).Msg("console ready")

	lines, errc := c.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errc; err != nil {
					return fmt.Errorf("read console: %w", err)
				}
				c.log.Info().Msg("console input closed")
				return nil
			}
			if err := c.gateway.RunCommand(ctx, sess, strings.TrimRight(line, "\r")); err != nil {
				if core.IsFatal(err) {
					return fmt.Errorf("console output: %w", err)
				}
				c.log.Debug().Err(err).Msg("console command rejected")
			}
		}
	}
}

// scan feeds input lines into a channel so the loop above can also select
// on ctx. The reader itself cannot be interrupted.
func (c *Console) scan(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}

// textSink prints replies and chat texts as plain lines.
type textSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newTextSink(w io.Writer) *textSink {
	return &textSink{w: w}
}

func (s *textSink) Reply(r proto.Reply) error {
	return s.println(r.Trailing)
}

func (s *textSink) Chat(_ string, msg proto.ChatMessage) error {
	if msg.MessageType == proto.MessageTypeSticker {
		return nil
	}
	return s.println(msg.Text)
}

func (s *textSink) println(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, text)
	return err
}
