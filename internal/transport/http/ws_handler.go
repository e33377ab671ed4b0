package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/core"
	"github.com/vovakirdan/wiregate/internal/utils"
)

// WSOptions configures the WebSocket line transport.
type WSOptions struct {
	MaxLineBytes      int
	CommandsPerMinute int
}

// WSHandler upgrades HTTP connections and feeds every line of every text
// message to the gateway. Each outbound line is sent as its own message.
type WSHandler struct {
	gateway *core.Gateway
	opts    WSOptions
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(gw *core.Gateway, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{gateway: gw, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.opts.MaxLineBytes > 0 {
		conn.SetReadLimit(int64(h.opts.MaxLineBytes))
	}

	handle := utils.NewID()
	defer h.gateway.Disconnect(handle)

	log := h.log.With().Str("handle", handle).Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("ws connection accepted")

	sink := core.NewLineSink(&wsWriter{ctx: ctx, conn: conn}, h.gateway.ServerName())
	c := core.NewConn(handle, sink, h.opts.CommandsPerMinute)

	err = h.readLoop(ctx, conn, c, &log)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, core.ErrQuit) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	_ = conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, c *core.Conn, log *zerolog.Logger) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			err := h.gateway.HandleLine(ctx, c, line)
			if err == nil {
				continue
			}
			if core.IsFatal(err) {
				return err
			}
			log.Warn().Err(err).Str("kind", string(core.KindOf(err))).Msg("line rejected")
		}
	}
}

// wsWriter sends every Write as one text message.
type wsWriter struct {
	ctx  context.Context
	conn *websocket.Conn
}

func (w *wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.Write(w.ctx, websocket.MessageText, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
