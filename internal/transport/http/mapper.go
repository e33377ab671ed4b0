package http

import (
	"github.com/vovakirdan/wiregate/internal/command"
	"github.com/vovakirdan/wiregate/internal/core"
)

// SessionResponse represents a live session.
type SessionResponse struct {
	Handle    string `json:"handle"`
	AccountID int64  `json:"account_id"`
	Channel   string `json:"channel"`
}

// ChannelResponse represents a channel and its member list.
type ChannelResponse struct {
	Name    string  `json:"name"`
	Members []int64 `json:"members"`
}

// CommandResponse represents a registered command.
type CommandResponse struct {
	Name    string `json:"name"`
	Usage   string `json:"usage"`
	Summary string `json:"summary"`
}

func toSessionResponses(sessions []*core.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionResponse{
			Handle:    sess.Handle,
			AccountID: sess.AccountID,
			Channel:   sess.Channel(),
		})
	}
	return out
}

func toChannelResponses(channels []*core.Channel) []ChannelResponse {
	out := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelResponse{
			Name:    ch.Name,
			Members: ch.Members(),
		})
	}
	return out
}

func toCommandResponses(specs []command.Spec) []CommandResponse {
	out := make([]CommandResponse, 0, len(specs))
	for _, spec := range specs {
		out = append(out, CommandResponse{
			Name:    spec.Name,
			Usage:   spec.Usage,
			Summary: spec.Summary,
		})
	}
	return out
}
