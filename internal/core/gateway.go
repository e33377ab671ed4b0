package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/proto"
	"github.com/vovakirdan/wiregate/internal/store"
)

const (
	welcomeText      = "Welcome."
	welcomeStickerID = 2
)

// Options configures a Gateway.
type Options struct {
	// ServerName is the prefix of every outbound line.
	ServerName string
	// CommandPrefix marks chat text as a command, "/" by default.
	CommandPrefix string
}

// Gateway decodes protocol lines and applies them to the shared session
// registry and channel table. One Gateway serves every connection.
type Gateway struct {
	sessions   *Sessions
	channels   *Channels
	dispatcher Dispatcher
	store      store.Store
	log        *zerolog.Logger

	serverName string
	prefix     string
}

// NewGateway creates a gateway. st may be nil to run without persistence.
func NewGateway(dispatcher Dispatcher, st store.Store, opts Options, logger *zerolog.Logger) *Gateway {
	if opts.ServerName == "" {
		opts.ServerName = "server"
	}
	if opts.CommandPrefix == "" {
		opts.CommandPrefix = "/"
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Gateway{
		sessions:   NewSessions(),
		channels:   NewChannels(),
		dispatcher: dispatcher,
		store:      st,
		log:        logger,
		serverName: opts.ServerName,
		prefix:     opts.CommandPrefix,
	}
}

// Sessions exposes the session registry.
func (g *Gateway) Sessions() *Sessions { return g.sessions }

// Channels exposes the channel table.
func (g *Gateway) Channels() *Channels { return g.channels }

// ServerName returns the prefix used on outbound lines.
func (g *Gateway) ServerName() string { return g.serverName }

// CommandPrefix returns the marker that turns chat text into a command.
func (g *Gateway) CommandPrefix() string { return g.prefix }

// NewSession builds a session wired to the gateway's collaborators without
// registering it.
func (g *Gateway) NewSession(handle string, accountID int64, sink Sink) *Session {
	sess := NewSession(handle, accountID, sink)
	sess.Store = g.store
	sess.Channels = g.channels
	l := g.log.With().Str("handle", handle).Int64("account_id", accountID).Logger()
	sess.Log = &l
	return sess
}

// Disconnect drops the session bound to handle, if any.
func (g *Gateway) Disconnect(handle string) {
	if g.sessions.Remove(handle) {
		g.log.Debug().Str("handle", handle).Msg("session removed")
	}
}

// HandleLine processes one inbound line for c. Returned errors describe what
// went wrong with this line; only errors for which IsFatal is true should end
// the connection.
func (g *Gateway) HandleLine(ctx context.Context, c *Conn, line string) error {
	verb, params := proto.Decode(line)

	switch verb {
	case proto.VerbNick:
		return g.reply(c, proto.ReplyWelcome, welcomeText)
	case proto.VerbUser:
		return g.handleUser(ctx, c, params)
	case proto.VerbJoin:
		return g.handleJoin(c, params)
	case proto.VerbPrivmsg:
		return g.handlePrivmsg(ctx, c, params)
	case proto.VerbPing:
		return g.reply(c, proto.ReplyPong, "PONG")
	case proto.VerbQuit:
		return ErrQuit
	case proto.VerbPass, proto.VerbPart:
		return nil
	default:
		return nil
	}
}

func (g *Gateway) handleUser(ctx context.Context, c *Conn, params string) error {
	token, _ := proto.SplitFirst(strings.TrimSpace(params))

	accountID, err := parseAccountID(token)
	if err != nil {
		if replyErr := g.reply(c, proto.ReplyErrInvalidUser, "Invalid account identifier"); replyErr != nil {
			return replyErr
		}
		return gatewayError(KindIdentity, fmt.Sprintf("parse %q", token), err)
	}

	sess := g.NewSession(c.Handle, accountID, c.Sink)
	g.sessions.Upsert(c.Handle, sess)

	if g.store != nil {
		if _, err := g.store.RecordLogin(ctx, accountID); err != nil {
			sess.Log.Warn().Err(err).Msg("failed to record login")
		}
	}

	sess.Log.Debug().Msg("user logged in")
	return nil
}

func parseAccountID(token string) (int64, error) {
	parts := strings.Split(token, "_")
	if len(parts) < 2 {
		return 0, errors.New("missing '_' delimiter")
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}
	return id, nil
}

func (g *Gateway) handleJoin(c *Conn, params string) error {
	sess, ok := g.sessions.Get(c.Handle)
	if !ok {
		if err := g.reply(c, proto.ReplyErrNotRegistered, "You have not registered"); err != nil {
			return err
		}
		return gatewayError(KindChannelJoin, "join", ErrNotRegistered)
	}

	name := strings.TrimSpace(params)
	if name == "" {
		if err := g.reply(c, proto.ReplyErrNeedMoreParams, "JOIN :Not enough parameters"); err != nil {
			return err
		}
		return gatewayError(KindChannelJoin, "join", errors.New("empty channel name"))
	}
	// Outbound chat lines carry the channel as a single target token.
	if strings.ContainsAny(name, " \t") {
		if err := g.reply(c, proto.ReplyErrBadChanName, "Illegal channel name"); err != nil {
			return err
		}
		return gatewayError(KindChannelJoin, "join", fmt.Errorf("channel name %q contains whitespace", name))
	}

	g.channels.JoinOrCreate(name, sess.AccountID)
	sess.SetChannel(name)
	sess.Log.Debug().Str("channel", name).Msg("user joined channel")

	if err := g.welcome(sess); err != nil {
		return transportError(err)
	}
	return nil
}

// welcome greets a session that just joined a channel.
func (g *Gateway) welcome(sess *Session) error {
	if err := sess.Send(welcomeText); err != nil {
		return err
	}
	if err := sess.Send("Type " + g.prefix + "help for more information."); err != nil {
		return err
	}
	return sess.SendSticker(welcomeStickerID)
}

func (g *Gateway) handlePrivmsg(ctx context.Context, c *Conn, params string) error {
	channel, payload := proto.SplitFirst(params)

	msg, err := proto.DecodeChatPayload(payload)
	if err != nil {
		return gatewayError(KindPayloadDecode, "privmsg "+channel, err)
	}
	if !strings.HasPrefix(msg.Text, g.prefix) {
		return nil
	}

	sess, ok := g.sessions.Get(c.Handle)
	if !ok {
		if err := g.reply(c, proto.ReplyErrNotRegistered, "You have not registered"); err != nil {
			return err
		}
		return gatewayError(KindNotRegistered, "privmsg", ErrNotRegistered)
	}

	if !c.limiter.allow() {
		return g.reply(c, proto.ReplyErrTargetTooFast, "Too many commands, slow down")
	}

	return g.RunCommand(ctx, sess, msg.Text)
}

// RunCommand dispatches prefixed text on behalf of sess and acknowledges the
// outcome to sess only. Text without the command prefix is ignored.
func (g *Gateway) RunCommand(ctx context.Context, sess *Session, text string) error {
	inv, ok := ParseCommand(g.prefix, text)
	if !ok {
		return nil
	}
	inv.Session = sess

	out := g.dispatcher.Dispatch(ctx, inv)

	switch {
	case !out.Found:
		if err := sess.Send(fmt.Sprintf("Invalid command %s, try %shelp", inv.Name, g.prefix)); err != nil {
			return transportError(err)
		}
		return gatewayError(KindCommandNotFound, inv.Name, nil)
	case out.Err != nil:
		if err := sess.Send(fmt.Sprintf("Command %s failed to execute! %v", inv.Name, out.Err)); err != nil {
			return transportError(err)
		}
		if err := sess.Send("Usage: " + out.Usage); err != nil {
			return transportError(err)
		}
		return gatewayError(KindCommandExecution, inv.Name, out.Err)
	default:
		if err := sess.Send(fmt.Sprintf("Command %s executed successfully!", inv.Name)); err != nil {
			return transportError(err)
		}
		sess.Log.Debug().Str("command", inv.Name).Msg("command executed")
		return nil
	}
}

func (g *Gateway) reply(c *Conn, code proto.ReplyCode, trailing string) error {
	err := c.Sink.Reply(proto.Reply{Prefix: g.serverName, Code: code, Trailing: trailing})
	if err != nil {
		return transportError(err)
	}
	return nil
}

func transportError(err error) error {
	return gatewayError(KindTransport, "write", err)
}
