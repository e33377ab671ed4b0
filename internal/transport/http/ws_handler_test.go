package http

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func dialIRC(t *testing.T, env *testEnv) (*websocket.Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := strings.Replace(env.ts.URL, "http", "ws", 1) + "/irc"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn, ctx
}

func readLine(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("unexpected message type %v", typ)
	}
	return strings.TrimRight(string(data), "\r\n")
}

func writeText(t *testing.T, ctx context.Context, conn *websocket.Conn, text string) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketLines(t *testing.T) {
	env := startTestServer(t)
	conn, ctx := dialIRC(t, env)

	writeText(t, ctx, conn, "NICK sensei\r\nPING")
	if got := readLine(t, ctx, conn); got != ":server 001 :Welcome." {
		t.Fatalf("unexpected nick reply %q", got)
	}
	if got := readLine(t, ctx, conn); got != ":server 000 :PONG" {
		t.Fatalf("unexpected ping reply %q", got)
	}

	writeText(t, ctx, conn, "USER sensei_42")
	writeText(t, ctx, conn, "JOIN lobby")
	for i := 0; i < 3; i++ {
		if got := readLine(t, ctx, conn); !strings.HasPrefix(got, ":server PRIVMSG lobby :{") {
			t.Fatalf("unexpected welcome line %q", got)
		}
	}

	writeText(t, ctx, conn, `PRIVMSG lobby :{"Text":"/whoami"}`)
	if got := readLine(t, ctx, conn); !strings.Contains(got, `"Text":"Account 42, channel lobby"`) {
		t.Fatalf("unexpected whoami output %q", got)
	}
	if got := readLine(t, ctx, conn); !strings.Contains(got, `"Text":"Command whoami executed successfully!"`) {
		t.Fatalf("unexpected ack %q", got)
	}

	if env.gateway.Sessions().Len() != 1 {
		t.Fatalf("expected 1 session, got %d", env.gateway.Sessions().Len())
	}

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	waitFor(t, func() bool { return env.gateway.Sessions().Len() == 0 })
}

func TestWebSocketMalformedPayloadKeepsConnection(t *testing.T) {
	env := startTestServer(t)
	conn, ctx := dialIRC(t, env)

	writeText(t, ctx, conn, "USER sensei_1\nPRIVMSG lobby :{broken\nPING")
	if got := readLine(t, ctx, conn); got != ":server 000 :PONG" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestWebSocketQuit(t *testing.T) {
	env := startTestServer(t)
	conn, ctx := dialIRC(t, env)

	writeText(t, ctx, conn, "USER sensei_1\nQUIT")

	_, _, err := conn.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure, got %v (%v)", status, err)
	}
	waitFor(t, func() bool { return env.gateway.Sessions().Len() == 0 })
}
