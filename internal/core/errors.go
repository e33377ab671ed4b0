package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure. Every kind is recoverable at the
// connection loop.
type ErrorKind string

const (
	KindProtocol         ErrorKind = "protocol_error"
	KindIdentity         ErrorKind = "identity_error"
	KindNotRegistered    ErrorKind = "not_registered"
	KindChannelJoin      ErrorKind = "channel_join_error"
	KindPayloadDecode    ErrorKind = "payload_decode_error"
	KindCommandNotFound  ErrorKind = "command_not_found"
	KindCommandExecution ErrorKind = "command_execution_error"
	KindTransport        ErrorKind = "transport_error"
)

var (
	// ErrNotRegistered is returned when a verb needs a session and none exists.
	ErrNotRegistered = errors.New("not registered")
	// ErrQuit is returned when the peer asked to close the connection.
	ErrQuit = errors.New("quit")
)

// GatewayError wraps a kind, a short context message and the cause.
type GatewayError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func gatewayError(kind ErrorKind, msg string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of a gateway error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsFatal reports whether err must end the connection loop that produced it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrQuit) || KindOf(err) == KindTransport
}
