package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType classifies a chat payload.
type MessageType int

const (
	MessageTypeNone MessageType = iota
	MessageTypeNotice
	MessageTypeSticker
	MessageTypeChat
	MessageTypeHistoryCount
)

// ChatMessage is the structured body carried by PRIVMSG.
type ChatMessage struct {
	MessageType     MessageType `json:"MessageType"`
	CharacterID     int64       `json:"CharacterId"`
	AccountNickname string      `json:"AccountNickname"`
	StickerID       int64       `json:"StickerId"`
	Text            string      `json:"Text"`
	SendTicks       int64       `json:"SendTicks"`
	EmblemID        int         `json:"EmblemId"`
}

// ErrMissingText is returned when a payload has no Text field.
var ErrMissingText = errors.New("payload has no Text field")

// DecodeChatPayload strips the leading ':' sentinel and decodes the JSON
// object that follows. Text must be present; every other field is optional.
func DecodeChatPayload(raw string) (ChatMessage, error) {
	raw = strings.TrimLeft(strings.TrimSpace(raw), ":")

	var wire struct {
		ChatMessage
		Text *string `json:"Text"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat payload: %w", err)
	}
	if wire.Text == nil {
		return ChatMessage{}, ErrMissingText
	}

	msg := wire.ChatMessage
	msg.Text = *wire.Text
	return msg, nil
}
