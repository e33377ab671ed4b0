package proto

import (
	"encoding/json"
	"fmt"
)

// ReplyCode is a numeric status following the IRC reply-code convention.
type ReplyCode int

const (
	ReplyPong              ReplyCode = 0
	ReplyWelcome           ReplyCode = 1
	ReplyErrTargetTooFast  ReplyCode = 439
	ReplyErrNotRegistered  ReplyCode = 451
	ReplyErrNeedMoreParams ReplyCode = 461
	ReplyErrInvalidUser    ReplyCode = 468
	ReplyErrBadChanName    ReplyCode = 479
)

// Reply is a single outbound status line.
type Reply struct {
	Prefix   string
	Code     ReplyCode
	Trailing string
}

// Encode renders the reply as ":prefix NNN :trailing" without a line terminator.
func (r Reply) Encode() string {
	return fmt.Sprintf(":%s %03d :%s", r.Prefix, int(r.Code), r.Trailing)
}

// EncodeChat renders an outbound chat line carrying msg as its JSON payload.
func EncodeChat(prefix, channel string, msg ChatMessage) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode chat payload: %w", err)
	}
	return fmt.Sprintf(":%s PRIVMSG %s :%s", prefix, channel, payload), nil
}
