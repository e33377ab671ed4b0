package core

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/proto"
	"github.com/vovakirdan/wiregate/internal/store"
)

// Sink is the write side of one connection. Implementations must be safe for
// use by a single connection loop; LineSink additionally serializes writes.
type Sink interface {
	Reply(r proto.Reply) error
	Chat(channel string, msg proto.ChatMessage) error
}

// LineSink writes protocol lines to w.
type LineSink struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewLineSink builds a sink that prefixes every line with the server name.
func NewLineSink(w io.Writer, serverName string) *LineSink {
	return &LineSink{w: w, prefix: serverName}
}

// Reply writes r as a single line.
func (s *LineSink) Reply(r proto.Reply) error {
	if r.Prefix == "" {
		r.Prefix = s.prefix
	}
	return s.writeLine(r.Encode())
}

// Chat writes msg as a PRIVMSG line addressed to channel.
func (s *LineSink) Chat(channel string, msg proto.ChatMessage) error {
	if channel == "" {
		channel = "*"
	}
	line, err := proto.EncodeChat(s.prefix, channel, msg)
	if err != nil {
		return err
	}
	return s.writeLine(line)
}

func (s *LineSink) writeLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, line+"\r\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Session is the gateway's record for one identified connection. Commands
// receive it as their issuing context.
type Session struct {
	Handle    string
	AccountID int64

	// Store and Channels are the collaborator handles commands may use.
	// Store is nil when persistence is disabled.
	Store    store.Store
	Channels *Channels
	Log      *zerolog.Logger

	sink Sink

	mu      sync.RWMutex
	channel string
}

// NewSession builds a session bound to sink.
func NewSession(handle string, accountID int64, sink Sink) *Session {
	nop := zerolog.Nop()
	return &Session{
		Handle:    handle,
		AccountID: accountID,
		Log:       &nop,
		sink:      sink,
	}
}

// Channel returns the session's current channel, empty before any join.
func (s *Session) Channel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// SetChannel records name as the session's current channel.
func (s *Session) SetChannel(name string) {
	s.mu.Lock()
	s.channel = name
	s.mu.Unlock()
}

// Send writes a chat line with text to this session only.
func (s *Session) Send(text string) error {
	return s.sink.Chat(s.Channel(), proto.ChatMessage{
		MessageType: proto.MessageTypeChat,
		Text:        text,
	})
}

// SendSticker writes a sticker cue to this session only.
func (s *Session) SendSticker(id int64) error {
	return s.sink.Chat(s.Channel(), proto.ChatMessage{
		MessageType: proto.MessageTypeSticker,
		StickerID:   id,
	})
}

// Reply writes a status reply to this session only.
func (s *Session) Reply(r proto.Reply) error {
	return s.sink.Reply(r)
}
